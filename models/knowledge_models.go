package models

// KnowledgeBase is the root document loaded once at startup. It is never
// mutated after load; a reload swaps in a freshly parsed copy.
type KnowledgeBase struct {
	Organization OrganizationInfo `json:"organization_info"`
	Contact      ContactInfo      `json:"contact_info"`
	Products     []Product        `json:"products"`
	Sections     []Section        `json:"sections"`
	FAQs         []FAQ            `json:"faqs"`
}

// OrganizationInfo holds general information about the organization.
type OrganizationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	About       string `json:"about"`
	SiteURL     string `json:"site_url"`
}

// ContactInfo holds the organization's contact channels.
type ContactInfo struct {
	Email   []string `json:"email"`
	Phone   []string `json:"phone"`
	Address []string `json:"address"`
}

// Product represents a product or service entry.
type Product struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Section represents a free-form information section.
type Section struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords,omitempty"`
}

// FAQ represents a frequently asked question.
type FAQ struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
}

// KnowledgeFragment is a single retrieval result, produced per query.
type KnowledgeFragment struct {
	Source string  `json:"source"` // section the fragment came from
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}
