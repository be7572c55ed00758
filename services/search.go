package services

import (
	"fmt"
	"sort"
	"strings"

	"asistente/models"
)

// Retriever selects knowledge fragments relevant to a query using
// deterministic keyword scoring.
//
// Scoring rule: the score of an entry is the number of distinct normalized
// query tokens found in its keyword set (explicit keywords plus the tokens of
// its title), boosted by 2 when the entry's full normalized title occurs as a
// substring of the normalized query. Entries scoring below MinScore are
// discarded; ties keep declaration order.
type Retriever struct {
	MaxResults int
	MinScore   float64
}

// NewRetriever creates a retriever with the given limits. maxResults <= 0
// defaults to 5, minScore <= 0 defaults to 1 (any keyword overlap admits).
func NewRetriever(maxResults int, minScore float64) *Retriever {
	if maxResults <= 0 {
		maxResults = 5
	}
	if minScore <= 0 {
		minScore = 1
	}
	return &Retriever{MaxResults: maxResults, MinScore: minScore}
}

// searchEntry is a flattened, scoreable view of one knowledge base entry.
type searchEntry struct {
	source   string
	title    string
	text     string
	keywords map[string]struct{}
}

// Retrieve scores every entry of the knowledge base against the query and
// returns the best fragments in descending score order. An empty result is a
// normal outcome, never an error; identical inputs always yield identical
// output.
func (r *Retriever) Retrieve(query string, kb *models.KnowledgeBase) []models.KnowledgeFragment {
	if kb == nil {
		return nil
	}

	normQuery := normalizeText(query)
	tokens := tokenize(normQuery)
	if len(tokens) == 0 {
		return nil
	}

	entries := flattenKnowledgeBase(kb)

	var fragments []models.KnowledgeFragment
	for _, e := range entries {
		score := scoreEntry(e, tokens, normQuery)
		if score < r.MinScore {
			continue
		}
		fragments = append(fragments, models.KnowledgeFragment{
			Source: e.source,
			Text:   e.text,
			Score:  score,
		})
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Score > fragments[j].Score
	})

	if len(fragments) > r.MaxResults {
		fragments = fragments[:r.MaxResults]
	}
	return fragments
}

func scoreEntry(e searchEntry, queryTokens []string, normQuery string) float64 {
	var score float64
	for _, tok := range queryTokens {
		if _, ok := e.keywords[tok]; ok {
			score++
		}
	}
	if e.title != "" && strings.Contains(normQuery, e.title) {
		score += 2
	}
	return score
}

// flattenKnowledgeBase turns the structured document into scoreable entries,
// preserving declaration order: organization, contact, products, sections,
// FAQs. Organization and contact carry the fixed tag sets the source document
// implies rather than a title of their own.
func flattenKnowledgeBase(kb *models.KnowledgeBase) []searchEntry {
	var entries []searchEntry

	org := kb.Organization
	if org.Name != "" || org.Description != "" || org.About != "" {
		entries = append(entries, searchEntry{
			source: "organization",
			text:   formatOrganization(org),
			keywords: keywordSet([]string{
				"empresa", "compania", "organizacion", "acerca", "quienes", "nosotros", "about",
			}, org.Name),
		})
	}

	if len(kb.Contact.Email) > 0 || len(kb.Contact.Phone) > 0 || len(kb.Contact.Address) > 0 {
		entries = append(entries, searchEntry{
			source: "contact",
			text:   formatContact(kb.Contact),
			keywords: keywordSet([]string{
				"contacto", "contactar", "email", "correo", "telefono", "direccion",
				"ubicacion", "consultar", "cotizacion", "presupuesto",
			}, ""),
		})
	}

	for _, p := range kb.Products {
		entries = append(entries, searchEntry{
			source:   "products",
			title:    normalizeText(p.Name),
			text:     fmt.Sprintf("%s: %s (Precio: %s)", p.Name, p.Description, p.Price),
			keywords: keywordSet(p.Keywords, p.Name),
		})
	}

	for _, s := range kb.Sections {
		entries = append(entries, searchEntry{
			source:   "sections",
			title:    normalizeText(s.Title),
			text:     fmt.Sprintf("%s: %s", s.Title, s.Content),
			keywords: keywordSet(s.Keywords, s.Title),
		})
	}

	for _, f := range kb.FAQs {
		entries = append(entries, searchEntry{
			source:   "faqs",
			title:    normalizeText(f.Question),
			text:     fmt.Sprintf("P: %s\nR: %s", f.Question, f.Answer),
			keywords: keywordSet(f.Keywords, f.Question),
		})
	}

	return entries
}

// keywordSet builds the normalized keyword set from explicit keywords plus
// the tokens of the entry title.
func keywordSet(keywords []string, title string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, kw := range keywords {
		for _, tok := range tokenize(normalizeText(kw)) {
			set[tok] = struct{}{}
		}
	}
	for _, tok := range tokenize(normalizeText(title)) {
		set[tok] = struct{}{}
	}
	return set
}

// normalizeText lowercases, folds Spanish vowel diacritics (ñ is kept as a
// distinct letter) and strips everything that is not a letter, digit or space.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case 'á':
			r = 'a'
		case 'é':
			r = 'e'
		case 'í':
			r = 'i'
		case 'ó':
			r = 'o'
		case 'ú', 'ü':
			r = 'u'
		}
		if isLetterOrDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func isLetterOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == 'ñ'
}

func tokenize(normalized string) []string {
	return strings.Fields(normalized)
}

func formatOrganization(org models.OrganizationInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %s", org.Name, org.Description))
	if org.About != "" {
		b.WriteString("\n")
		b.WriteString(org.About)
	}
	if org.SiteURL != "" {
		b.WriteString("\nSitio web: ")
		b.WriteString(org.SiteURL)
	}
	return b.String()
}

func formatContact(c models.ContactInfo) string {
	var parts []string
	if len(c.Email) > 0 {
		parts = append(parts, "Email: "+strings.Join(c.Email, ", "))
	}
	if len(c.Phone) > 0 {
		parts = append(parts, "Teléfono: "+strings.Join(c.Phone, ", "))
	}
	if len(c.Address) > 0 {
		parts = append(parts, "Dirección: "+strings.Join(c.Address, ", "))
	}
	return strings.Join(parts, "\n")
}
