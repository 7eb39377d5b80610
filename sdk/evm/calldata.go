package evm

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cast"

	"github.com/arcadia-pay/arcpay/types"
)

// Schema is a validated description of a contract function: an ordered list
// of typed fields resolved once at construction time. Building the argument
// types up front (rather than re-parsing a signature string on every call)
// means a typo in a field type fails at construction, before anything is
// encoded or hashed.
type Schema struct {
	name      string
	signature string
	fields    []string
	args      gethabi.Arguments
	selector  [4]byte
}

// NewSchema builds a Schema from a method name and ordered field types.
// Field types are canonicalized (uint -> uint256, int -> int256) before the
// selector is computed.
func NewSchema(name string, fieldTypes []string) (*Schema, error) {
	if name == "" || strings.ContainsAny(name, "() ,") {
		return nil, types.NewValidationError("name", fmt.Sprintf("invalid method name %q", name))
	}

	canonical := make([]string, len(fieldTypes))
	args := make(gethabi.Arguments, len(fieldTypes))
	for i, fieldType := range fieldTypes {
		ct := canonicalType(fieldType)
		canonical[i] = ct

		typ, err := resolveType(ct)
		if err != nil {
			return nil, types.NewValidationError("fields", fmt.Sprintf("field %d: %s", i, err))
		}
		args[i] = gethabi.Argument{Name: fmt.Sprintf("arg%d", i), Type: typ}
	}

	signature := fmt.Sprintf("%s(%s)", name, strings.Join(canonical, ","))

	var selector [4]byte
	copy(selector[:], crypto.Keccak256([]byte(signature))[:4])

	return &Schema{
		name:      name,
		signature: signature,
		fields:    canonical,
		args:      args,
		selector:  selector,
	}, nil
}

// ParseSignature builds a Schema from a human-readable function signature,
// e.g. "transfer(address,uint256)" or "setPairs((uint256,address)[])".
func ParseSignature(signature string) (*Schema, error) {
	open := strings.Index(signature, "(")
	if open < 1 || !strings.HasSuffix(signature, ")") {
		return nil, types.NewValidationError("signature", fmt.Sprintf("malformed signature %q", signature))
	}

	name := strings.TrimSpace(signature[:open])
	inner := signature[open+1 : len(signature)-1]

	return NewSchema(name, splitTopLevel(inner))
}

// Signature returns the canonical function signature.
func (s *Schema) Signature() string { return s.signature }

// Selector returns the 4-byte function selector.
func (s *Schema) Selector() []byte { return s.selector[:] }

// FieldTypes returns the canonical field types in declared order.
func (s *Schema) FieldTypes() []string { return append([]string(nil), s.fields...) }

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Pack coerces the given arguments to the schema's field types and encodes
// them as calldata: selector followed by the abi-encoded arguments. Arguments
// may be native Go values or JSON-decoded values (strings, float64 numbers,
// nested []any).
func (s *Schema) Pack(argValues []any) ([]byte, error) {
	if len(argValues) != len(s.args) {
		return nil, types.NewValidationError("args", fmt.Sprintf(
			"%s expects %d args, got %d", s.signature, len(s.args), len(argValues)))
	}

	coerced := make([]any, len(argValues))
	for i, v := range argValues {
		cv, err := coerceArg(s.args[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("arg %d of %s: %w", i, s.signature, err)
		}
		coerced[i] = cv
	}

	encoded, err := s.args.Pack(coerced...)
	if err != nil {
		return nil, types.NewEncodingError("abi pack failed", err)
	}

	return append(s.Selector(), encoded...), nil
}

// Unpack structurally decodes a calldata payload against the schema. The
// selector must match and the argument block must decode cleanly; values are
// returned as the decoder's native Go types.
func (s *Schema) Unpack(data []byte) ([]any, error) {
	if len(data) < 4 {
		return nil, types.NewEncodingError("calldata shorter than a selector", nil)
	}
	if [4]byte(data[:4]) != s.selector {
		return nil, types.NewEncodingError(fmt.Sprintf(
			"selector %s does not match %s (%s)",
			hexutil.Encode(data[:4]), s.signature, hexutil.Encode(s.Selector())), nil)
	}

	values, err := s.args.Unpack(data[4:])
	if err != nil {
		return nil, types.NewEncodingError("abi unpack failed", err)
	}

	return values, nil
}

// canonicalType rewrites the shorthand integer aliases to their canonical
// forms, including inside tuples and arrays.
func canonicalType(t string) string {
	t = strings.TrimSpace(t)
	if strings.HasPrefix(t, "(") {
		closing := strings.LastIndex(t, ")")
		inner := splitTopLevel(t[1:closing])
		for i, it := range inner {
			inner[i] = canonicalType(it)
		}

		return "(" + strings.Join(inner, ",") + ")" + t[closing+1:]
	}
	if suffix, ok := strings.CutPrefix(t, "uint"); ok && (suffix == "" || strings.HasPrefix(suffix, "[")) {
		return "uint256" + suffix
	}
	if suffix, ok := strings.CutPrefix(t, "int"); ok && (suffix == "" || strings.HasPrefix(suffix, "[")) {
		return "int256" + suffix
	}

	return t
}

// resolveType builds a geth abi.Type from a canonical type string,
// translating parenthesized tuples into component lists.
func resolveType(t string) (gethabi.Type, error) {
	if !strings.HasPrefix(t, "(") {
		return gethabi.NewType(t, "", nil)
	}

	closing := strings.LastIndex(t, ")")
	if closing < 0 {
		return gethabi.Type{}, fmt.Errorf("unbalanced tuple type %q", t)
	}

	components := make([]gethabi.ArgumentMarshaling, 0)
	for i, inner := range splitTopLevel(t[1:closing]) {
		comp, err := marshalingFor(fmt.Sprintf("f%d", i), inner)
		if err != nil {
			return gethabi.Type{}, err
		}
		components = append(components, comp)
	}

	return gethabi.NewType("tuple"+t[closing+1:], "", components)
}

func marshalingFor(name, t string) (gethabi.ArgumentMarshaling, error) {
	if !strings.HasPrefix(t, "(") {
		return gethabi.ArgumentMarshaling{Name: name, Type: t}, nil
	}

	closing := strings.LastIndex(t, ")")
	if closing < 0 {
		return gethabi.ArgumentMarshaling{}, fmt.Errorf("unbalanced tuple type %q", t)
	}

	components := make([]gethabi.ArgumentMarshaling, 0)
	for i, inner := range splitTopLevel(t[1:closing]) {
		comp, err := marshalingFor(fmt.Sprintf("f%d", i), inner)
		if err != nil {
			return gethabi.ArgumentMarshaling{}, err
		}
		components = append(components, comp)
	}

	return gethabi.ArgumentMarshaling{
		Name:       name,
		Type:       "tuple" + t[closing+1:],
		Components: components,
	}, nil
}

// splitTopLevel splits a comma-separated type list, respecting parentheses.
func splitTopLevel(raw string) []string {
	parts := make([]string, 0)
	depth := 0
	var buf strings.Builder
	for _, ch := range raw {
		switch {
		case ch == ',' && depth == 0:
			if s := strings.TrimSpace(buf.String()); s != "" {
				parts = append(parts, s)
			}
			buf.Reset()

			continue
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		}
		buf.WriteRune(ch)
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		parts = append(parts, s)
	}

	return parts
}

// coerceArg converts a loosely typed value (typically JSON-decoded) into the
// Go representation the abi packer expects for the given type.
func coerceArg(typ gethabi.Type, value any) (any, error) {
	switch typ.T {
	case gethabi.SliceTy, gethabi.ArrayTy:
		return coerceSequence(typ, value)

	case gethabi.TupleTy:
		return coerceTuple(typ, value)

	case gethabi.AddressTy:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, types.NewValidationError("address", fmt.Sprintf("%v", value))
		}
		if !common.IsHexAddress(s) {
			return nil, types.NewValidationError("address", fmt.Sprintf("invalid address %q", s))
		}

		return common.HexToAddress(s), nil

	case gethabi.UintTy, gethabi.IntTy:
		return coerceInteger(typ, value)

	case gethabi.BoolTy:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, types.NewValidationError("bool", fmt.Sprintf("%v", value))
		}

		return b, nil

	case gethabi.BytesTy:
		return coerceBytes(value)

	case gethabi.FixedBytesTy:
		return coerceFixedBytes(typ, value)

	case gethabi.StringTy:
		return cast.ToString(value), nil

	case gethabi.HashTy, gethabi.FixedPointTy, gethabi.FunctionTy:
		return nil, types.NewValidationError("type", fmt.Sprintf("unsupported abi type %s", typ))

	default:
		return nil, types.NewValidationError("type", fmt.Sprintf("unsupported abi type %s", typ))
	}
}

func coerceSequence(typ gethabi.Type, value any) (any, error) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, types.NewValidationError("array", fmt.Sprintf("%s expects an array value", typ))
	}
	if typ.T == gethabi.ArrayTy && rv.Len() != typ.Size {
		return nil, types.NewValidationError("array", fmt.Sprintf(
			"%s expects %d elements, got %d", typ, typ.Size, rv.Len()))
	}

	out := reflect.MakeSlice(reflect.SliceOf(typ.Elem.GetType()), rv.Len(), rv.Len())
	if typ.T == gethabi.ArrayTy {
		out = reflect.New(typ.GetType()).Elem()
	}
	for i := range rv.Len() {
		cv, err := coerceArg(*typ.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(cv))
	}

	return out.Interface(), nil
}

func coerceTuple(typ gethabi.Type, value any) (any, error) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, types.NewValidationError("tuple", "tuple value must be array-like")
	}
	if rv.Len() != len(typ.TupleElems) {
		return nil, types.NewValidationError("tuple", fmt.Sprintf(
			"tuple expects %d elements, got %d", len(typ.TupleElems), rv.Len()))
	}

	out := reflect.New(typ.GetType()).Elem()
	for i, elemTyp := range typ.TupleElems {
		cv, err := coerceArg(*elemTyp, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}
		out.Field(i).Set(reflect.ValueOf(cv))
	}

	return out.Interface(), nil
}

func coerceInteger(typ gethabi.Type, value any) (any, error) {
	n, ok := new(big.Int), false
	switch v := value.(type) {
	case *big.Int:
		n, ok = v, true
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			n, ok = n.SetString(s[2:], 16)
		} else {
			n, ok = n.SetString(s, 10)
		}
	case float64:
		// JSON numbers; reject fractional values
		if v == float64(int64(v)) {
			n, ok = n.SetInt64(int64(v)), true
		}
	case int, int8, int16, int32, int64:
		n, ok = n.SetInt64(reflect.ValueOf(v).Int()), true
	case uint, uint8, uint16, uint32, uint64:
		n, ok = n.SetUint64(reflect.ValueOf(v).Uint()), true
	}
	if !ok {
		return nil, types.NewValidationError("integer", fmt.Sprintf("invalid %s value %v", typ, value))
	}
	if typ.T == gethabi.UintTy && n.Sign() < 0 {
		return nil, types.NewValidationError("integer", fmt.Sprintf("negative value for %s", typ))
	}

	// The packer expects sized native integers below 64 bits and *big.Int
	// above.
	if typ.Size > 64 {
		return n, nil
	}
	if typ.T == gethabi.UintTy {
		if !n.IsUint64() {
			return nil, types.NewValidationError("integer", fmt.Sprintf("value overflows %s", typ))
		}
		u := n.Uint64()
		switch typ.Size {
		case 8:
			return uint8(u), checkRange(u <= 1<<8-1, typ)
		case 16:
			return uint16(u), checkRange(u <= 1<<16-1, typ)
		case 32:
			return uint32(u), checkRange(u <= 1<<32-1, typ)
		default:
			return u, nil
		}
	}
	if !n.IsInt64() {
		return nil, types.NewValidationError("integer", fmt.Sprintf("value overflows %s", typ))
	}
	i := n.Int64()
	switch typ.Size {
	case 8:
		return int8(i), checkRange(i >= -1<<7 && i <= 1<<7-1, typ)
	case 16:
		return int16(i), checkRange(i >= -1<<15 && i <= 1<<15-1, typ)
	case 32:
		return int32(i), checkRange(i >= -1<<31 && i <= 1<<31-1, typ)
	default:
		return i, nil
	}
}

func checkRange(inRange bool, typ gethabi.Type) error {
	if !inRange {
		return types.NewValidationError("integer", fmt.Sprintf("value overflows %s", typ))
	}

	return nil
}

func coerceBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case hexutil.Bytes:
		return v, nil
	case string:
		if !strings.HasPrefix(v, "0x") {
			return []byte(v), nil
		}
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, types.NewEncodingError(fmt.Sprintf("malformed hex payload %q", v), err)
		}

		return b, nil
	default:
		return nil, types.NewValidationError("bytes", fmt.Sprintf("invalid bytes value %v", value))
	}
}

func coerceFixedBytes(typ gethabi.Type, value any) (any, error) {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case common.Hash:
		raw = v.Bytes()
	case string:
		s := strings.TrimPrefix(v, "0x")
		if len(s)%2 != 0 {
			s = "0" + s
		}
		b, err := hexutil.Decode("0x" + s)
		if err != nil {
			return nil, types.NewEncodingError(fmt.Sprintf("malformed hex payload %q", v), err)
		}
		raw = b
	default:
		return nil, types.NewValidationError("bytes", fmt.Sprintf("invalid bytes%d value %v", typ.Size, value))
	}
	if len(raw) > typ.Size {
		return nil, types.NewValidationError("bytes", fmt.Sprintf(
			"value of %d bytes overflows bytes%d", len(raw), typ.Size))
	}

	// Right-pad short values, matching Solidity literal widening.
	out := reflect.New(typ.GetType()).Elem()
	for i, b := range raw {
		out.Index(i).Set(reflect.ValueOf(b))
	}

	return out.Interface(), nil
}
