package errorz

import "strings"

// InvalidInput signals that a provided input is invalid due to the wrapped errors.
type InvalidInput []error

func (e InvalidInput) Error() string {
	var b strings.Builder
	b.WriteString("invalid input:\n")
	for _, err := range e {
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e InvalidInput) Unwrap() []error {
	return e
}

// Fields returns the wrapped errors as a field name to message mapping.
// Errors that are not Keyed are grouped under the empty key.
func (e InvalidInput) Fields() map[string]string {
	if len(e) == 0 {
		return nil
	}

	fields := make(map[string]string, len(e))
	for _, err := range e {
		if k, ok := err.(Keyed); ok {
			fields[k.Key] = k.Err.Error()
			continue
		}
		fields[""] = err.Error()
	}
	return fields
}
