package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The source format relies on the order of object keys, which
// encoding/json maps throw away. tocEntries decodes a children object
// token by token so siblings keep their document order.
type tocEntries struct {
	keys  []string
	nodes map[string]*tocEntry
}

type tocEntry struct {
	Level     *int          `json:"level"`
	IsLast    bool          `json:"is_last"`
	Section   Section       `json:"section"`
	Endpoints []rawEndpoint `json:"api_endpoints"`
	Children  *tocEntries   `json:"children"`
}

type rawEndpoint struct {
	Endpoint    string          `json:"endpoint"`
	RequestBody json.RawMessage `json:"request_body"`
	CurlCommand string          `json:"curl_command"`
	Responses   json.RawMessage `json:"responses"`
}

func (t *tocEntries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	t.nodes = make(map[string]*tocEntry)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}

		entry := &tocEntry{}
		if err := dec.Decode(entry); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		if _, seen := t.nodes[key]; !seen {
			t.keys = append(t.keys, key)
		}
		t.nodes[key] = entry
	}

	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (t *tocEntries) empty() bool {
	return t == nil || len(t.keys) == 0
}
