package entities

// EntityName is the name used for data points in lookup and conflict errors
const EntityName = "DataPoint"

// DataPoint is a persisted record identified locally by a store-assigned ID
// and externally by a unique ExternalID.
type DataPoint struct {
	ID           int64   `json:"id"`
	ExternalID   string  `json:"externalId"`
	Value        string  `json:"value"`
	Comment      *string `json:"comment"`
	Significance int     `json:"significance"`
}

// IsNew reports whether the data point has not been persisted yet
func (p *DataPoint) IsNew() bool {
	return p.ID == 0
}

// Clone returns a deep copy of the data point
func (p *DataPoint) Clone() *DataPoint {
	if p == nil {
		return nil
	}
	c := *p
	if p.Comment != nil {
		comment := *p.Comment
		c.Comment = &comment
	}
	return &c
}

// Field names used by query specifications and error criteria
const (
	FieldID           = "id"
	FieldExternalID   = "externalId"
	FieldValue        = "value"
	FieldComment      = "comment"
	FieldSignificance = "significance"
)

// FieldByName returns the value of the named field, used for in-memory
// filtering
func (p *DataPoint) FieldByName(field string) (interface{}, bool) {
	switch field {
	case FieldID:
		return p.ID, true
	case FieldExternalID:
		return p.ExternalID, true
	case FieldValue:
		return p.Value, true
	case FieldComment:
		if p.Comment == nil {
			return nil, true
		}
		return *p.Comment, true
	case FieldSignificance:
		return p.Significance, true
	default:
		return nil, false
	}
}
