package quality

import "strings"

// referenceWords is the embedded dictionary used as an OCR-fidelity proxy.
// It holds the most common English function words plus vocabulary that
// dominates archival material (legal, governmental, financial,
// correspondence). The word score is the fraction of alphabetic tokens
// found here; clean prose scores high, OCR garbage scores low. The list
// intentionally stays small: it is a proxy signal, not a spell checker.
const referenceWords = `
the be to of and a in that have i it for not on with he as you do at this
but his by from they we say her she or an will my one all would there their
what so up out if about who get which go me when make can like time no just
him know take people into year your good some could them see other than then
now look only come its over think also back after use two how our work first
well way even new want because any these give day most us is was are been
has had were said did having may such where why before through between both
each few more other same too very own shall must might still during against
under further once here again
document documents page pages date dated record records file filed filing
files court case number motion order judge party parties plaintiff defendant
counsel attorney witness testimony deposition exhibit evidence hearing trial
appeal judgment ruling statute section subsection pursuant herein thereof
whereas therefore notice served service state states united federal district
county city government department agency office officer director report
commission committee investigation review subject regarding reference
letter memo memorandum email message sent received copy original signed
signature name address phone account bank statement balance amount total
payment paid transfer transaction fund funds money dollar dollars interest
tax income asset assets liability estate property value period quarter
annual fiscal year month week day am pm mr mrs ms dr sir madam dear
sincerely respectfully enclosed attached please thank following above below
included including provided request requested information confidential
public release released approved denied pending complete incomplete
continued conclusion summary description item list note notes
`

// dictionary is the lookup set built from referenceWords
var dictionary = buildDictionary()

func buildDictionary() map[string]struct{} {
	words := strings.Fields(referenceWords)
	dict := make(map[string]struct{}, len(words))
	for _, w := range words {
		dict[w] = struct{}{}
	}
	return dict
}

// inDictionary reports whether a lowercased token is a reference word
func inDictionary(token string) bool {
	_, ok := dictionary[token]
	return ok
}
