// Package connstring implements the semicolon-delimited key/value
// connection string model used to address and authenticate against a
// remote endpoint: parsing, validation, key import through a
// credential store, derived accessors, and fixed-order serialisation,
// per spec §3/§4.6.
package connstring

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/credstore"
	"github.com/prxmesh/prxcore/pkg/perr"
)

// entry identifies one slot of a ConnectionString, mirroring the
// fixed field set of the textual grammar.
type entry int

const (
	entryHostName entry = iota
	entryDeviceID
	entryEndpoint
	entryEntityPath
	entrySharedAccessKeyName
	entrySharedAccessKey
	entryConsumerGroup
	entryPartitions
	entryEndpointName
	entrySharedAccessToken
	entrySharedAccessKeyHandle
	entryHubName // derived cache slot, never serialized
	entryMax
)

var entryKeys = map[string]entry{
	"hostname":              entryHostName,
	"deviceid":              entryDeviceID,
	"endpoint":              entryEndpoint,
	"entitypath":            entryEntityPath,
	"sharedaccesskeyname":   entrySharedAccessKeyName,
	"sharedaccesskey":       entrySharedAccessKey,
	"consumergroup":         entryConsumerGroup,
	"partitions":            entryPartitions,
	"endpointname":          entryEndpointName,
	"sharedaccesstoken":     entrySharedAccessToken,
	"sharedaccesskeyhandle": entrySharedAccessKeyHandle,
}

// serializedOrder is the fixed order spec §4.6 requires on output.
var serializedOrder = []struct {
	e    entry
	name string
}{
	{entryHostName, "HostName"},
	{entryDeviceID, "DeviceId"},
	{entryEndpoint, "Endpoint"},
	{entryEntityPath, "EntityPath"},
	{entrySharedAccessKeyName, "SharedAccessKeyName"},
	{entrySharedAccessKey, "SharedAccessKey"},
	{entryConsumerGroup, "ConsumerGroup"},
	{entryPartitions, "Partitions"},
	{entryEndpointName, "EndpointName"},
	{entrySharedAccessToken, "SharedAccessToken"},
	{entrySharedAccessKeyHandle, "SharedAccessKeyHandle"},
}

// ConnectionString holds the parsed entries of a connection string.
// Entries are mutable; per the concurrency model, callers must
// serialize access externally and use Clone to hand a copy across
// goroutines.
type ConnectionString struct {
	entries [entryMax]*string
}

func (cs *ConnectionString) get(e entry) (string, bool) {
	if cs.entries[e] == nil {
		return "", false
	}
	return *cs.entries[e], true
}

func (cs *ConnectionString) set(e entry, v string) {
	vv := v
	cs.entries[e] = &vv
}

// HostName returns the host name entry, deriving it from Endpoint
// (stripping any "scheme://" prefix and trailing path) if not present
// directly. The derived value is cached.
func (cs *ConnectionString) HostName() (string, bool) {
	if v, ok := cs.get(entryHostName); ok {
		return v, true
	}
	ep, ok := cs.get(entryEndpoint)
	if !ok {
		return "", false
	}
	trimmed := trimScheme(ep)
	if i := strings.IndexAny(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "", false
	}
	cs.set(entryHostName, trimmed)
	return trimmed, true
}

// DeviceID returns the device id entry, if present.
func (cs *ConnectionString) DeviceID() (string, bool) { return cs.get(entryDeviceID) }

// Endpoint returns the endpoint entry, if present.
func (cs *ConnectionString) Endpoint() (string, bool) { return cs.get(entryEndpoint) }

// EntityPath returns the entity path entry, if present.
func (cs *ConnectionString) EntityPath() (string, bool) { return cs.get(entryEntityPath) }

// SharedAccessKeyName returns the shared access key policy name, if
// present.
func (cs *ConnectionString) SharedAccessKeyName() (string, bool) {
	return cs.get(entrySharedAccessKeyName)
}

// SharedAccessKey returns the raw shared access key, if it has not
// yet been imported into a credential store.
func (cs *ConnectionString) SharedAccessKey() (string, bool) {
	return cs.get(entrySharedAccessKey)
}

// SharedAccessToken returns the shared access token entry, if present.
func (cs *ConnectionString) SharedAccessToken() (string, bool) {
	return cs.get(entrySharedAccessToken)
}

// SharedAccessKeyHandle returns the credential-store handle produced
// by key import, if present.
func (cs *ConnectionString) SharedAccessKeyHandle() (string, bool) {
	return cs.get(entrySharedAccessKeyHandle)
}

// HubName returns the first dot-delimited label of the host name.
func (cs *ConnectionString) HubName() (string, bool) {
	if v, ok := cs.get(entryHubName); ok {
		return v, true
	}
	host, ok := cs.HostName()
	if !ok {
		return "", false
	}
	name := host
	if i := strings.IndexByte(host, '.'); i >= 0 {
		name = host[:i]
	}
	cs.set(entryHubName, name)
	return name, true
}

// EndpointName falls back to HubName when no explicit entry is set.
func (cs *ConnectionString) EndpointName() (string, bool) {
	if v, ok := cs.get(entryEndpointName); ok {
		return v, true
	}
	return cs.HubName()
}

// ConsumerGroup defaults to "$default" when an endpoint is set.
func (cs *ConnectionString) ConsumerGroup() (string, bool) {
	if v, ok := cs.get(entryConsumerGroup); ok {
		return v, true
	}
	if _, ok := cs.Endpoint(); ok {
		return "$default", true
	}
	return "", false
}

// PartitionCount defaults to 4 when an endpoint is set, else 0.
func (cs *ConnectionString) PartitionCount() int {
	if v, ok := cs.get(entryPartitions); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	}
	if _, ok := cs.Endpoint(); ok {
		return 4
	}
	return 0
}

// uniqueKeyName builds <policy>@<host>, or device:<device>@<host>
// when no policy name is present, dropping the @<host> suffix when
// host cannot be derived.
func (cs *ConnectionString) uniqueKeyName() (string, error) {
	const op = errors.Op("connstring: unique key name")
	var b strings.Builder
	if name, ok := cs.SharedAccessKeyName(); ok {
		b.WriteString(name)
	} else {
		device, ok := cs.DeviceID()
		if !ok {
			return "", errors.E(op, perr.ErrNotFound)
		}
		b.WriteString("device:")
		b.WriteString(device)
	}
	if host, ok := cs.HostName(); ok {
		b.WriteString("@")
		b.WriteString(host)
	}
	return b.String(), nil
}

func trimScheme(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		return s[i+3:]
	}
	return s
}

// Clone returns an independent deep copy, the sanctioned way to hand
// a connection string to another goroutine.
func (cs *ConnectionString) Clone() *ConnectionString {
	out := &ConnectionString{}
	for i, e := range cs.entries {
		if e == nil {
			continue
		}
		v := *e
		out.entries[i] = &v
	}
	return out
}

// String serializes the entries in the fixed order spec §4.6 requires,
// skipping absent entries.
func (cs *ConnectionString) String() string {
	var b strings.Builder
	for _, s := range serializedOrder {
		v, ok := cs.get(s.e)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(s.name)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

// Parse parses raw, imports any shared access key through store, and
// validates the result. store may be nil to skip key import (e.g. when
// only inspecting fields); policyImport selects whether a policy key
// is imported with the persist hint set.
func Parse(raw string, store credstore.Store, policyImport bool) (*ConnectionString, error) {
	const op = errors.Op("connstring: parse")
	cs := &ConnectionString{}
	if err := parseInto(cs, raw); err != nil {
		return nil, errors.E(op, err)
	}
	if store != nil {
		if err := importKey(cs, store, policyImport); err != nil {
			return nil, errors.E(op, err)
		}
	}
	if err := validate(cs); err != nil {
		return nil, errors.E(op, err)
	}
	return cs, nil
}

// New builds a connection string from its most common fields, then
// imports and validates exactly as Parse does.
func New(hostName, deviceID, keyName, key string, store credstore.Store, policyImport bool) (*ConnectionString, error) {
	const op = errors.Op("connstring: new")
	cs := &ConnectionString{}
	cs.set(entryHostName, hostName)
	if deviceID != "" {
		cs.set(entryDeviceID, deviceID)
	}
	if keyName != "" {
		cs.set(entrySharedAccessKeyName, keyName)
	}
	if key != "" {
		cs.set(entrySharedAccessKey, key)
	}
	if store != nil {
		if err := importKey(cs, store, policyImport); err != nil {
			return nil, errors.E(op, err)
		}
	}
	if err := validate(cs); err != nil {
		return nil, errors.E(op, err)
	}
	return cs, nil
}

func parseInto(cs *ConnectionString, raw string) error {
	const op = errors.Op("connstring: parse entries")
	for _, part := range strings.Split(raw, ";") {
		if part == "" {
			continue
		}
		i := strings.IndexByte(part, '=')
		if i < 0 {
			return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("malformed entry %q", part))
		}
		key := strings.ToLower(part[:i])
		val := part[i+1:]
		if key == "gatewayhostname" {
			continue // accepted, not used
		}
		e, ok := entryKeys[key]
		if !ok {
			return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("unrecognized key %q", part[:i]))
		}
		if cs.entries[e] != nil {
			return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("duplicate key %q", part[:i]))
		}
		cs.set(e, val)
	}
	return nil
}

// importKey moves a raw SharedAccessKey entry into the credential
// store, replacing it with a handle. Policy keys (a key alongside a
// SharedAccessKeyName) are persisted only when policyImport is set;
// device keys are always persisted. A no-op when no key is present.
func importKey(cs *ConnectionString, store credstore.Store, policyImport bool) error {
	const op = errors.Op("connstring: import key")
	keyVal, ok := cs.get(entrySharedAccessKey)
	if !ok {
		return nil
	}
	name, err := cs.uniqueKeyName()
	if err != nil {
		return errors.E(op, err)
	}
	raw, err := base64.StdEncoding.DecodeString(keyVal)
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	_, hasPolicy := cs.SharedAccessKeyName()
	persist := !hasPolicy || policyImport
	handle, err := store.Import(name, raw, persist)
	if err != nil {
		return errors.E(op, err)
	}
	if handle.String() != name {
		cs.set(entrySharedAccessKeyHandle, handle.String())
	}
	cs.entries[entrySharedAccessKey] = nil
	return nil
}

// RemoveKey deletes any persisted secret behind the connection
// string's key handle; a no-op if no handle is present or it carries
// a wrapped (session-scoped) secret with nothing persistent to
// remove.
func RemoveKey(cs *ConnectionString, store credstore.Store) error {
	const op = errors.Op("connstring: remove key")
	raw, ok := cs.get(entrySharedAccessKeyHandle)
	if !ok {
		return nil
	}
	handle := credstore.ParseKeyHandle(raw)
	if handle.IsWrapped() {
		return nil
	}
	if err := store.Remove(handle); err != nil {
		return errors.E(op, err)
	}
	return nil
}

func validate(cs *ConnectionString) error {
	const op = errors.Op("connstring: validate")
	host, hasHost := cs.HostName()
	_, hasEndpoint := cs.Endpoint()
	switch {
	case hasHost && !hasEndpoint:
		if host == "" {
			return errors.E(op, perr.ErrInvalidFormat)
		}
		if err := validateHostName(host); err != nil {
			return errors.E(op, err)
		}
	case !hasHost:
		return errors.E(op, perr.ErrInvalidFormat)
	}

	device, hasDevice := cs.DeviceID()
	if !hasDevice {
		// Permissive by design: a connection string identified only
		// by a shared-access-key-name policy is accepted without a
		// device id, skipping the checks below entirely.
		return nil
	}
	if device == "" {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := validateDeviceID(device); err != nil {
		return errors.E(op, err)
	}

	if token, ok := cs.SharedAccessToken(); ok {
		if err := validateSASToken(token); err != nil {
			return errors.E(op, err)
		}
	}
	return nil
}

// validateHostName checks the first dot-delimited label: 3-50 chars,
// alphanumeric and hyphen, not leading with a hyphen, not purely
// numeric. A host name with no dot at all is rejected outright.
func validateHostName(host string) error {
	const op = errors.Op("connstring: validate host name")
	i := strings.IndexByte(host, '.')
	if i < 0 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	label := host[:i]
	if len(label) < 3 || len(label) > 50 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if label[0] == '-' {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	hasAlpha := false
	for _, c := range label {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
			hasAlpha = true
		default:
			return errors.E(op, perr.ErrInvalidFormat)
		}
	}
	if !hasAlpha {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

const deviceIDExtraChars = "-:.+%_#*?!(),=@;$'"

// validateDeviceID checks length <= 127 and an alphanumeric-plus-extras
// character set.
func validateDeviceID(id string) error {
	const op = errors.Op("connstring: validate device id")
	if len(id) > 127 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune(deviceIDExtraChars, c):
		default:
			return errors.E(op, perr.ErrInvalidFormat)
		}
	}
	return nil
}

// validateSASToken checks the coarse structural shape of a shared
// access signature token: the scheme prefix and the sr=/sig=/se=
// fields a well-formed token must carry.
func validateSASToken(token string) error {
	const op = errors.Op("connstring: validate sas token")
	if !strings.HasPrefix(token, "SharedAccessSignature ") {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	for _, want := range []string{"sr=", "sig=", "se="} {
		if !strings.Contains(token, want) {
			return errors.E(op, perr.ErrInvalidFormat)
		}
	}
	return nil
}
