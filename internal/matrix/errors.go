package matrix

import "fmt"

// TemplateError reports a shape or parameter template that cannot be
// expanded: an unknown token, an unbalanced brace or a shape that is not a
// map.
type TemplateError struct {
	Group   string
	Axis    string
	Text    string
	Message string
}

func (e *TemplateError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("template %s.%s: %s", e.Group, e.Axis, e.Message)
	}
	return fmt.Sprintf("template %s.%s: %q: %s", e.Group, e.Axis, e.Text, e.Message)
}
