package domain

import (
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Valid reports whether s is one of the known lead statuses
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

type Lead struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	Source     string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_lead_source_external" json:"source"`
	ExternalID string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_lead_source_external" json:"external_id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Address    string     `gorm:"type:varchar(512)" json:"address"`
	Phone      string     `gorm:"type:varchar(32)" json:"phone"`
	Website    string     `gorm:"type:varchar(512)" json:"website"`
	Rating     float64    `json:"rating"`
	Status     LeadStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	ImportID   string     `gorm:"type:varchar(36);index" json:"import_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// NewLeadFromResult creates a lead in 'new' status out of a normalized result
func NewLeadFromResult(r SearchResult, importID string) Lead {
	return Lead{
		Source:     r.Source,
		ExternalID: r.ID,
		Name:       r.Name,
		Address:    r.Address,
		Phone:      r.Phone,
		Website:    r.Website,
		Rating:     r.Rating,
		Status:     LeadStatusNew,
		ImportID:   importID,
	}
}

type LeadFilter struct {
	Source string
	Status LeadStatus
	Limit  int
	Offset int
}

type ImportRequest struct {
	Source  string         `json:"source"`
	Results []SearchResult `json:"results"`
}

type ImportResult struct {
	ImportID   string `json:"importId"`
	Imported   int    `json:"imported"`
	Dispatched bool   `json:"dispatched"`
}

// ImportReceipt is stored once the lead webhook accepts an import batch
type ImportReceipt struct {
	ImportID   string    `json:"importId"`
	Source     string    `json:"source"`
	Count      int       `json:"count"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

// WebhookPayload is the body posted to the lead automation webhook
type WebhookPayload struct {
	ImportID string `json:"importId"`
	Source   string `json:"source"`
	Leads    []Lead `json:"leads"`
}
