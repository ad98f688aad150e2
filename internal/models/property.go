package models

// Property is one rentable listing from the catalog. Images is the ground
// truth for which photos exist; the saved order only decides how the subset
// that has been ordered is presented.
type Property struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Image  string   `json:"image"`
	Images []string `json:"images"`
}

// Key returns the normalized storage key for this property.
func (p *Property) Key() string {
	return PropertyKey(p.Name)
}
