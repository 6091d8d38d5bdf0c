package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataPoint_JSONRendersMissingCommentAsNull(t *testing.T) {
	p := &DataPoint{ID: 1, ExternalID: "external-id-421", Value: "some-value-421", Significance: 1}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"id":1,"externalId":"external-id-421","value":"some-value-421","comment":null,"significance":1}`,
		string(raw),
	)
}

func TestDataPoint_CloneDoesNotShareComment(t *testing.T) {
	comment := "original"
	p := &DataPoint{ID: 7, ExternalID: "e", Comment: &comment}

	c := p.Clone()
	*c.Comment = "changed"

	assert.Equal(t, "original", *p.Comment)
	assert.Equal(t, int64(7), c.ID)
	assert.False(t, c.IsNew())
	assert.True(t, (&DataPoint{}).IsNew())
}

func TestDataPoint_FieldByName(t *testing.T) {
	comment := "c"
	p := &DataPoint{ID: 3, ExternalID: "e3", Value: "v", Comment: &comment, Significance: 2}

	v, ok := p.FieldByName(FieldID)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	v, _ = p.FieldByName(FieldComment)
	assert.Equal(t, "c", v)

	v, _ = (&DataPoint{}).FieldByName(FieldComment)
	assert.Nil(t, v)

	_, ok = p.FieldByName("unknown")
	assert.False(t, ok)
}
