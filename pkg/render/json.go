package render

import (
	"encoding/json"
	"io"

	"digital.vasic.testconsole/pkg/console"
)

// JSON encodes the display document of s.
func JSON(s console.ViewState, pretty bool) ([]byte, error) {
	doc := NewDocument(s, true)
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// WriteJSON writes the display document of s to w.
func WriteJSON(w io.Writer, s console.ViewState, pretty bool) error {
	data, err := JSON(s, pretty)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
