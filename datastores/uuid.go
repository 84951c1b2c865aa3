package datastores

import (
	_ "encoding" // for documentation links to [encoding]
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

// ContactID is a [uuid.UUID] that uses [base64.RawURLEncoding]
// to marshal to and from text, so it can be used as is in URL paths.
type ContactID uuid.UUID

var errInvalidContactID = errors.New("invalid contact id")

// contactIDEncoding rejects non-zero padding bits so every id has a single text form.
var contactIDEncoding = base64.RawURLEncoding.Strict()

// newContactID returns a time-ordered (version 7) identifier.
func newContactID() ContactID { return ContactID(uuid.Must(uuid.NewV7())) }

func (ContactID) encoding() *base64.Encoding { return contactIDEncoding }

func (id ContactID) encodedLen() int {
	return id.encoding().EncodedLen(len(id))
}

// ParseContactID decodes the text form of a [ContactID].
func ParseContactID(s string) (ContactID, error) {
	var id ContactID
	err := id.UnmarshalText([]byte(s))
	return id, err
}

func (id ContactID) String() string {
	b, _ := id.AppendText(nil)
	return string(b)
}

// AppendText implements [encoding.TextAppender].
func (id ContactID) AppendText(b []byte) ([]byte, error) {
	return id.encoding().AppendEncode(b, id[:]), nil
}

// MarshalText implements [encoding.TextMarshaler].
func (id ContactID) MarshalText() ([]byte, error) {
	return id.AppendText(nil)
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (id *ContactID) UnmarshalText(b []byte) error {
	if len(b) != id.encodedLen() {
		return errInvalidContactID
	}
	_, err := id.encoding().Decode(id[:], b)
	if err != nil {
		return errors.Join(errInvalidContactID, err)
	}
	return nil
}
