// Package models holds the client-side plaintext forms of vault entries.
// The entry service seals these into ciphertext before they reach storage,
// so nothing in this package ever touches the disk or the wire directly.
package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// EntryType classifies an entry kind.
type EntryType string

const (
	EntryTypeNote       EntryType = "note"
	EntryTypeLogin      EntryType = "login"
	EntryTypeCreditCard EntryType = "credit_card"
)

// TypedEntry is implemented by every concrete payload type.
type TypedEntry interface {
	GetType() EntryType
}

// Login stores credentials for a site or service.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

func (x Login) GetType() EntryType { return EntryTypeLogin }

// Note stores free-form text.
type Note struct {
	Text string `json:"text"`
}

func (x Note) GetType() EntryType { return EntryTypeNote }

// CreditCard stores payment card details.
type CreditCard struct {
	Number     string `json:"number"`
	Expiration string `json:"expiration"`
	CVV        string `json:"cvv"`
	Holder     string `json:"holder"`
}

func (x CreditCard) GetType() EntryType { return EntryTypeCreditCard }

var ErrIncorrectMetadata = errors.New("metadata item must be name=value")

// Metadata is a key/value pair attached to an entry.
type Metadata struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MetadataFromString parses name=value items. Values may contain '=' signs;
// only the first one separates the name.
func MetadataFromString(s []string) ([]Metadata, error) {
	data := make([]Metadata, len(s))
	for n, item := range s {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, ErrIncorrectMetadata
		}
		data[n] = Metadata{Name: name, Value: value}
	}
	return data, nil
}

// Overview is the short summary shown in listings. It is encrypted separately
// from the full entry so a listing never decrypts secret material.
type Overview struct {
	Type  EntryType `json:"type"`
	Title string    `json:"title"`
}

// Envelope is the full decrypted form of an entry: its summary fields plus
// the type-specific details kept as raw JSON until someone asks for them.
type Envelope struct {
	Type     EntryType       `json:"type"`
	Title    string          `json:"title"`
	Metadata []Metadata      `json:"metadata"`
	Details  json.RawMessage `json:"details"`
}

// Wrap builds an Envelope around a payload value.
func Wrap(t EntryType, title string, md []Metadata, v any) (Envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: t, Title: title, Metadata: md, Details: b}, nil
}

func decode[T TypedEntry](b json.RawMessage) (any, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

var decoders = map[EntryType]func(json.RawMessage) (any, error){
	EntryTypeNote:       decode[Note],
	EntryTypeLogin:      decode[Login],
	EntryTypeCreditCard: decode[CreditCard],
}

// Unwrap decodes the details into the concrete payload type. Unknown types
// fall back to a generic map so entries written by a newer client still list
// and display.
func (e Envelope) Unwrap() (any, error) {
	if dec, ok := decoders[e.Type]; ok {
		return dec(e.Details)
	}
	var m map[string]any
	if err := json.Unmarshal(e.Details, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (e Envelope) Overview() Overview {
	return Overview{Type: e.Type, Title: e.Title}
}
