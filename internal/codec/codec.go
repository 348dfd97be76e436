// Package codec converts between storage-channel message ids and the
// opaque tokens carried in t.me deep links.
//
// A token is the urlsafe base64 of a payload string:
//
//	get-<id*K>            single message
//	get-<start*K>-<end*K> inclusive range
//	sav-ory-<payload>     wrapped fallback of either form
//
// where K is the absolute value of the storage channel id. Verify
// tokens ("verify_<code>") are plain strings, never base64, and carry a
// random code with no numeric inverse.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrOutOfRange     = errors.New("identifier out of range")
)

const (
	payloadPrefix = "get"
	wrapPrefix    = "sav-ory-"
	verifyPrefix  = "verify_"
)

type Kind int

const (
	KindSingle Kind = iota
	KindRange
	KindVerify
)

// Request is a decoded token.
type Request struct {
	Kind    Kind
	Start   int64  // first message id (also the only id for KindSingle)
	End     int64  // last message id, inclusive
	Code    string // verification code for KindVerify
	Payload string // decoded inner payload, without any sav-ory- prefix
	Wrapped bool   // token carried the sav-ory- fallback prefix
}

// EncodeID produces a single-message token for id under multiplier k.
func EncodeID(id, k int64) (string, error) {
	p, err := payloadID(id, k)
	if err != nil {
		return "", err
	}
	return encode(p), nil
}

// EncodeRange produces a range token. start and end are channel message
// ids; start > end is legal and yields descending delivery order.
// Equal endpoints collapse to the single-id form.
func EncodeRange(start, end, k int64) (string, error) {
	if start == end {
		return EncodeID(start, k)
	}
	s, err := payloadID(start, k)
	if err != nil {
		return "", err
	}
	e, err := payloadID(end, k)
	if err != nil {
		return "", err
	}
	return encode(s + "-" + strings.TrimPrefix(e, payloadPrefix+"-")), nil
}

// Wrap re-encodes a decoded payload under the sav-ory- fallback prefix.
// The result is a full token suitable for a shareable deep link.
func Wrap(payload string) string {
	return encode(wrapPrefix + payload)
}

// Decode parses token under multiplier k. Verify tokens are recognized
// before base64; everything else must round-trip through the grammar
// above or fail with ErrMalformedToken.
func Decode(token string, k int64) (Request, error) {
	if strings.HasPrefix(token, verifyPrefix) {
		code := token[len(verifyPrefix):]
		if code == "" || strings.Contains(code, "_") {
			return Request{}, ErrMalformedToken
		}
		return Request{Kind: KindVerify, Code: code}, nil
	}
	if k <= 0 {
		return Request{}, fmt.Errorf("%w: non-positive multiplier", ErrMalformedToken)
	}

	raw, err := base64.URLEncoding.DecodeString(pad(token))
	if err != nil {
		return Request{}, ErrMalformedToken
	}
	payload := string(raw)

	wrapped := strings.HasPrefix(payload, wrapPrefix)
	if wrapped {
		payload = payload[len(wrapPrefix):]
	}

	fields := strings.Split(payload, "-")
	if fields[0] != payloadPrefix {
		return Request{}, ErrMalformedToken
	}
	switch len(fields) {
	case 2:
		id, err := divide(fields[1], k)
		if err != nil {
			return Request{}, err
		}
		return Request{Kind: KindSingle, Start: id, End: id, Payload: payload, Wrapped: wrapped}, nil
	case 3:
		start, err := divide(fields[1], k)
		if err != nil {
			return Request{}, err
		}
		end, err := divide(fields[2], k)
		if err != nil {
			return Request{}, err
		}
		return Request{Kind: KindRange, Start: start, End: end, Payload: payload, Wrapped: wrapped}, nil
	default:
		return Request{}, ErrMalformedToken
	}
}

// IDs expands the request into the concrete message id sequence.
// Ascending for Start <= End, descending otherwise; both are inclusive.
// The order is deliberate: it controls the order messages arrive in.
func (r Request) IDs() []int64 {
	if r.Kind == KindVerify {
		return nil
	}
	if r.Start <= r.End {
		ids := make([]int64, 0, r.End-r.Start+1)
		for i := r.Start; i <= r.End; i++ {
			ids = append(ids, i)
		}
		return ids
	}
	ids := make([]int64, 0, r.Start-r.End+1)
	for i := r.Start; i >= r.End; i-- {
		ids = append(ids, i)
	}
	return ids
}

func payloadID(id, k int64) (string, error) {
	if id <= 0 || k <= 0 {
		return "", ErrOutOfRange
	}
	if id > math.MaxInt64/k {
		return "", ErrOutOfRange
	}
	return fmt.Sprintf("%s-%d", payloadPrefix, id*k), nil
}

func divide(field string, k int64) (int64, error) {
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrMalformedToken
	}
	// A foreign or corrupted token won't divide exactly by this
	// deployment's multiplier.
	if v%k != 0 {
		return 0, ErrMalformedToken
	}
	return v / k, nil
}

func encode(payload string) string {
	return base64.URLEncoding.EncodeToString([]byte(payload))
}

// pad restores base64 padding stripped by clients that mangle trailing
// '=' in URLs.
func pad(s string) string {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return s
}
