package netbox

import (
	"context"
)

// ListTags returns all tag records.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	return list[Tag](ctx, c, "/api/extras/tags/")
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, name, slug, description string) (*Tag, error) {
	body := map[string]any{
		"name":        name,
		"slug":        slug,
		"description": description,
	}
	var tag Tag
	if err := c.create(ctx, "/api/extras/tags/", body, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// CustomFieldParams are the writable fields of a custom field definition.
type CustomFieldParams struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	ObjectTypes []string `json:"object_types"`
	Description string   `json:"description,omitempty"`
}

// ListCustomFields returns all custom field definitions.
func (c *Client) ListCustomFields(ctx context.Context) ([]CustomField, error) {
	return list[CustomField](ctx, c, "/api/extras/custom-fields/")
}

// CreateCustomField creates a custom field definition.
func (c *Client) CreateCustomField(ctx context.Context, params CustomFieldParams) (*CustomField, error) {
	var field CustomField
	if err := c.create(ctx, "/api/extras/custom-fields/", params, &field); err != nil {
		return nil, err
	}
	return &field, nil
}
