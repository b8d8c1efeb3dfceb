// Package manifest loads batch manifests and per-document metadata
// sidecars from an ingestion directory.
//
// A batch directory holds extracted .txt documents (page breaks as form
// feeds), an optional manifest.yaml describing the source collection,
// and optional <name>.meta.yaml sidecars carrying structured metadata
// for the metadata matching phase.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openarchive/canon/internal/types"
)

// ManifestName is the batch manifest filename inside the batch directory
const ManifestName = "manifest.yaml"

const sidecarSuffix = ".meta.yaml"

// Manifest describes the provenance shared by every document in a batch
type Manifest struct {
	SourceName    string              `yaml:"source_name"`
	Collection    string              `yaml:"collection"`
	URL           string              `yaml:"url"`
	AuthorityTier types.AuthorityTier `yaml:"authority_tier"`
	DownloadedAt  time.Time           `yaml:"downloaded_at"`
}

// Validate checks the manifest fields
func (m *Manifest) Validate() error {
	if m.SourceName == "" {
		return fmt.Errorf("source_name is required")
	}
	if !m.AuthorityTier.IsValid() {
		return fmt.Errorf("invalid authority tier: %s", m.AuthorityTier)
	}
	return nil
}

// Load reads the batch manifest from dir. CLI flags may override fields
// afterwards; a missing file yields a zero manifest and no error so a
// flags-only invocation works.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// sidecar is the on-disk shape of a metadata sidecar. The document_type
// field selects which metadata variant the remaining fields decode into.
type sidecar struct {
	DocumentType types.DocumentType `yaml:"document_type"`
	Title        string             `yaml:"title"`
	Date         string             `yaml:"date"`

	Email     *types.EmailMetadata           `yaml:"email"`
	Court     *types.CourtFilingMetadata     `yaml:"court_filing"`
	Financial *types.FinancialRecordMetadata `yaml:"financial_record"`
}

// LoadSidecar reads the metadata sidecar for a document, nil when no
// sidecar exists. The sidecar for dir/report.txt is dir/report.meta.yaml.
func LoadSidecar(docPath string) (types.DocumentMetadata, error) {
	base := strings.TrimSuffix(docPath, filepath.Ext(docPath))
	data, err := os.ReadFile(base + sidecarSuffix)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar: %w", err)
	}

	switch sc.DocumentType {
	case types.TypeEmail:
		if sc.Email == nil {
			return nil, fmt.Errorf("sidecar declares %s but has no email block", sc.DocumentType)
		}
		return sc.Email, nil
	case types.TypeCourtFiling:
		if sc.Court == nil {
			return nil, fmt.Errorf("sidecar declares %s but has no court_filing block", sc.DocumentType)
		}
		return sc.Court, nil
	case types.TypeFinancialRecord:
		if sc.Financial == nil {
			return nil, fmt.Errorf("sidecar declares %s but has no financial_record block", sc.DocumentType)
		}
		return sc.Financial, nil
	case types.TypeGeneric, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown document type in sidecar: %s", sc.DocumentType)
	}
}

// ListDocuments returns the .txt document paths in dir, sorted by name
// so batch order is stable across runs. Sidecars and the manifest are
// not documents.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch directory: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, sidecarSuffix) || name == ManifestName {
			continue
		}
		if filepath.Ext(name) != ".txt" {
			continue
		}
		docs = append(docs, filepath.Join(dir, name))
	}
	sort.Strings(docs)
	return docs, nil
}

// ReadDocument loads one extracted document. Pages split on form feeds;
// an unpaginated document gets a single page holding the full text.
func ReadDocument(path string, m *Manifest) (*types.SourceDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ExtractionError{Document: filepath.Base(path), Err: err}
	}

	text := string(raw)
	pages := strings.Split(text, "\f")

	metadata, err := LoadSidecar(path)
	if err != nil {
		return nil, &types.ExtractionError{Document: filepath.Base(path), Err: err}
	}

	return &types.SourceDocument{
		Name:          filepath.Base(path),
		Raw:           raw,
		Text:          text,
		Pages:         pages,
		SourceName:    m.SourceName,
		Collection:    m.Collection,
		URL:           m.URL,
		AuthorityTier: m.AuthorityTier,
		DownloadedAt:  m.DownloadedAt,
		Metadata:      metadata,
	}, nil
}
