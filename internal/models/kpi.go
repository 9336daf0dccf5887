package models

import (
	"database/sql/driver"
	"time"
)

// SubKPI is a measurable target inside a perspective
type SubKPI struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Target      string  `json:"target"`
	Actual      string  `json:"actual"`
}

// Perspective is a weighted group of sub-KPIs
type Perspective struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Weight      float64  `json:"weight"`
	Description string   `json:"description"`
	SubKPIs     []SubKPI `json:"subKPIs"`
}

// Competency is a behavioural rating attached to a KPI profile
type Competency struct {
	Name           string `json:"name"`
	Meaning        string `json:"meaning"`
	Rating         int    `json:"rating"`
	Succeed        string `json:"succeed"`
	Improvement    string `json:"improvement"`
	Recommendation string `json:"recommendation"`
}

// KPISet is a reusable KPI template assignable to users
type KPISet struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Position         string        `json:"position"`
	PositionName     string        `json:"positionName"`
	KPIWeight        float64       `json:"kpiWeight"`
	CompetencyWeight float64       `json:"competencyWeight"`
	AssignedTo       []string      `json:"assignedTo"`
	Perspectives     []Perspective `json:"perspectives"`
	Expanded         bool          `json:"expanded"`
}

// KPIDocument is the typed body of a KPI profile
type KPIDocument struct {
	KPIWeight        float64       `json:"kpiWeight"`
	CompetencyWeight float64       `json:"competencyWeight"`
	Perspectives     []Perspective `json:"perspectives"`
	Competencies     []Competency  `json:"competencies"`
}

// Value implements driver.Valuer
func (d KPIDocument) Value() (driver.Value, error) {
	if d.Perspectives == nil {
		d.Perspectives = []Perspective{}
	}
	if d.Competencies == nil {
		d.Competencies = []Competency{}
	}
	return valueJSON(d)
}

// Scan implements sql.Scanner
func (d *KPIDocument) Scan(src interface{}) error {
	return scanJSON(src, d)
}

// KPISetList is the JSONB column holding a collection of KPI sets
type KPISetList []KPISet

// Value implements driver.Valuer
func (l KPISetList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return valueJSON([]KPISet(l))
}

// Scan implements sql.Scanner
func (l *KPISetList) Scan(src interface{}) error {
	out := []KPISet{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// KPIProfile holds the KPI document of a role or a single user
type KPIProfile struct {
	Subject   string      `db:"subject" json:"subject"`
	Document  KPIDocument `db:"document" json:"document"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// KPISetCollection is the saved list of KPI sets for a tenant scope
type KPISetCollection struct {
	Scope     string     `db:"scope" json:"scope"`
	Sets      KPISetList `db:"sets" json:"sets"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
