package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"asistente/models"

	log "github.com/sirupsen/logrus"
)

// KnowledgeStore loads and holds the knowledge base in memory. The loaded
// document is never mutated; Reload parses a fresh copy and swaps the pointer.
type KnowledgeStore struct {
	path string

	mu sync.RWMutex
	kb *models.KnowledgeBase
}

// NewKnowledgeStore creates a store for the given knowledge base file.
// Call Load before serving queries.
func NewKnowledgeStore(path string) *KnowledgeStore {
	return &KnowledgeStore{path: path}
}

// Load reads and validates the knowledge base file. Returns a *LoadError
// if the file is unreadable, malformed, or violates the entry invariant.
func (k *KnowledgeStore) Load() error {
	kb, err := loadKnowledgeBase(k.path)
	if err != nil {
		return err
	}

	k.mu.Lock()
	k.kb = kb
	k.mu.Unlock()

	log.Infof("Knowledge base loaded from %s: %d products, %d sections, %d FAQs",
		k.path, len(kb.Products), len(kb.Sections), len(kb.FAQs))
	return nil
}

// Reload re-invokes the load path. On failure the previous knowledge base
// stays live.
func (k *KnowledgeStore) Reload() error {
	return k.Load()
}

// GetAll returns the in-memory knowledge base. Safe for concurrent readers;
// nil until Load has succeeded once.
func (k *KnowledgeStore) GetAll() *models.KnowledgeBase {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.kb
}

// GetStatus returns the status of the knowledge store
func (k *KnowledgeStore) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"file": k.path,
	}

	kb := k.GetAll()
	if kb == nil {
		status["status"] = "not_loaded"
		return status
	}

	status["status"] = "loaded"
	status["organization"] = kb.Organization.Name
	status["products"] = len(kb.Products)
	status["sections"] = len(kb.Sections)
	status["faqs"] = len(kb.FAQs)
	return status
}

func loadKnowledgeBase(path string) (*models.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var kb models.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	if err := validateKnowledgeBase(&kb); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return &kb, nil
}

// validateKnowledgeBase enforces the entry invariant: every entry must have
// at least one keyword source (explicit keywords or a non-empty title).
func validateKnowledgeBase(kb *models.KnowledgeBase) error {
	for i, p := range kb.Products {
		if !hasKeywordSource(p.Name, p.Keywords) {
			return fmt.Errorf("product %d has neither name nor keywords", i)
		}
	}
	for i, s := range kb.Sections {
		if !hasKeywordSource(s.Title, s.Keywords) {
			return fmt.Errorf("section %d has neither title nor keywords", i)
		}
	}
	for i, f := range kb.FAQs {
		if !hasKeywordSource(f.Question, f.Keywords) {
			return fmt.Errorf("faq %d has neither question nor keywords", i)
		}
	}
	return nil
}

func hasKeywordSource(title string, keywords []string) bool {
	if strings.TrimSpace(title) != "" {
		return true
	}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			return true
		}
	}
	return false
}
