// Package convert maps domain types to and from the google.protobuf.Struct
// messages exchanged by the studydeck.v1 service.
package convert

import (
	"fmt"
	"time"

	model "github.com/and161185/studydeck/internal/model"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message keys.
const (
	KeyName            = "name"
	KeyEmail           = "email"
	KeyPassword        = "password"
	KeyCurrentPassword = "current_password"
	KeyNewPassword     = "new_password"
	KeyAccessToken     = "access_token"
	KeyExpiresAt       = "expires_at"
	KeyIdentity        = "identity"
	KeyUserID          = "user_id"
	KeyDisplayName     = "display_name"
	KeyRole            = "role"
	KeyID              = "id"
	KeyCollection      = "collection"
	KeyOwnerID         = "owner_id"
	KeyFields          = "fields"
	KeyRecords         = "records"
	KeyCreatedAt       = "created_at"
	KeyUpdatedAt       = "updated_at"
)

// --- helpers ---

func str(s string) *structpb.Value { return structpb.NewStringValue(s) }

func ts(t time.Time) *structpb.Value { return str(t.UTC().Format(time.RFC3339Nano)) }

// Str returns the string value at key or "".
func Str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func parseTS(s *structpb.Struct, key string) (time.Time, error) {
	raw := Str(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func parseOptTS(s *structpb.Struct, key string) (*time.Time, error) {
	t, err := parseTS(s, key)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

// Object builds a Struct from string pairs.
func Object(kv map[string]string) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(kv))}
	for k, v := range kv {
		out.Fields[k] = str(v)
	}
	return out
}

// --- fields ---

// FieldsToStruct converts a flat field set.
func FieldsToStruct(f model.Fields) *structpb.Struct {
	return Object(f)
}

// FieldsFromStruct accepts only string values.
func FieldsFromStruct(s *structpb.Struct) (model.Fields, error) {
	out := make(model.Fields, len(s.GetFields()))
	for k, v := range s.GetFields() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("field %q: not a string", k)
		}
		out[k] = sv.StringValue
	}
	return out, nil
}

// --- identity / tokens ---

// IdentityToStruct encodes an identity.
func IdentityToStruct(id model.Identity) *structpb.Struct {
	return Object(map[string]string{
		KeyUserID:      id.UserID,
		KeyEmail:       id.Email,
		KeyDisplayName: id.DisplayName,
	})
}

// IdentityFromStruct decodes an identity; the user ID is mandatory.
func IdentityFromStruct(s *structpb.Struct) (model.Identity, error) {
	id := model.Identity{
		UserID:      Str(s, KeyUserID),
		Email:       Str(s, KeyEmail),
		DisplayName: Str(s, KeyDisplayName),
	}
	if id.UserID == "" {
		return model.Identity{}, fmt.Errorf("identity without %s", KeyUserID)
	}
	return id, nil
}

// AuthReply encodes the reply of SignUp and SignIn.
func AuthReply(tok model.Tokens, id model.Identity) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		KeyAccessToken: str(tok.AccessToken),
		KeyExpiresAt:   ts(tok.ExpiresAt),
		KeyIdentity:    structpb.NewStructValue(IdentityToStruct(id)),
	}}
}

// FromAuthReply decodes the reply of SignUp and SignIn.
func FromAuthReply(s *structpb.Struct) (model.Tokens, model.Identity, error) {
	tok := model.Tokens{AccessToken: Str(s, KeyAccessToken)}
	if tok.AccessToken == "" {
		return model.Tokens{}, model.Identity{}, fmt.Errorf("reply without %s", KeyAccessToken)
	}
	exp, err := parseTS(s, KeyExpiresAt)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	tok.ExpiresAt = exp
	id, err := IdentityFromStruct(s.GetFields()[KeyIdentity].GetStructValue())
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	return tok, id, nil
}

// --- profile ---

// ProfileToStruct encodes a profile.
func ProfileToStruct(p model.Profile) *structpb.Struct {
	out := Object(map[string]string{
		KeyUserID: p.UserID,
		KeyName:   p.Name,
		KeyEmail:  p.Email,
		KeyRole:   p.Role,
	})
	out.Fields[KeyCreatedAt] = ts(p.CreatedAt)
	if p.UpdatedAt != nil {
		out.Fields[KeyUpdatedAt] = ts(*p.UpdatedAt)
	}
	return out
}

// ProfileFromStruct decodes a profile.
func ProfileFromStruct(s *structpb.Struct) (model.Profile, error) {
	p := model.Profile{
		UserID: Str(s, KeyUserID),
		Name:   Str(s, KeyName),
		Email:  Str(s, KeyEmail),
		Role:   Str(s, KeyRole),
	}
	var err error
	if p.CreatedAt, err = parseTS(s, KeyCreatedAt); err != nil {
		return model.Profile{}, err
	}
	if p.UpdatedAt, err = parseOptTS(s, KeyUpdatedAt); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// --- documents ---

// DocumentToStruct encodes a document.
func DocumentToStruct(d model.Document) *structpb.Struct {
	out := Object(map[string]string{
		KeyID:         d.ID,
		KeyCollection: d.Collection,
		KeyOwnerID:    d.OwnerID,
	})
	out.Fields[KeyFields] = structpb.NewStructValue(FieldsToStruct(d.Fields))
	out.Fields[KeyCreatedAt] = ts(d.CreatedAt)
	if d.UpdatedAt != nil {
		out.Fields[KeyUpdatedAt] = ts(*d.UpdatedAt)
	}
	return out
}

// DocumentFromStruct decodes a document; the ID is mandatory.
func DocumentFromStruct(s *structpb.Struct) (model.Document, error) {
	d := model.Document{
		ID:         Str(s, KeyID),
		Collection: Str(s, KeyCollection),
		OwnerID:    Str(s, KeyOwnerID),
	}
	if d.ID == "" {
		return model.Document{}, fmt.Errorf("document without %s", KeyID)
	}
	var err error
	if d.Fields, err = FieldsFromStruct(s.GetFields()[KeyFields].GetStructValue()); err != nil {
		return model.Document{}, err
	}
	if d.CreatedAt, err = parseTS(s, KeyCreatedAt); err != nil {
		return model.Document{}, err
	}
	if d.UpdatedAt, err = parseOptTS(s, KeyUpdatedAt); err != nil {
		return model.Document{}, err
	}
	return d, nil
}

// DocumentsToStruct encodes a list reply.
func DocumentsToStruct(ds []model.Document) *structpb.Struct {
	vals := make([]*structpb.Value, 0, len(ds))
	for _, d := range ds {
		vals = append(vals, structpb.NewStructValue(DocumentToStruct(d)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		KeyRecords: structpb.NewListValue(&structpb.ListValue{Values: vals}),
	}}
}

// DocumentsFromStruct decodes a list reply preserving order.
func DocumentsFromStruct(s *structpb.Struct) ([]model.Document, error) {
	vals := s.GetFields()[KeyRecords].GetListValue().GetValues()
	out := make([]model.Document, 0, len(vals))
	for i, v := range vals {
		d, err := DocumentFromStruct(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// RecordRequest builds the request of record methods; empty values are omitted.
func RecordRequest(collection, id string, fields model.Fields) *structpb.Struct {
	out := Object(map[string]string{KeyCollection: collection})
	if id != "" {
		out.Fields[KeyID] = str(id)
	}
	if fields != nil {
		out.Fields[KeyFields] = structpb.NewStructValue(FieldsToStruct(fields))
	}
	return out
}
