// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seal

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

// envelopeMagic opens every encoded envelope.
var envelopeMagic = [4]byte{'S', 'F', 'E', 'V'}

// envelopeVersion is the current wire version.
const envelopeVersion = 1

const gcmNonceLen = 12

// CustodianShare is one custodian's entry in the envelope header: the
// custodian's on-chain object id, the Shamir share index, and the share
// wrapped to the custodian's public key.
type CustodianShare struct {
	ObjectID string
	Index    uint16
	Wrapped  []byte
}

// Envelope is the self-describing encrypted blob. Any holder of the bytes
// can parse out the identifier, threshold and custodian set without the
// original signal or listing, which is all a consumer needs beyond knowing
// where the custodians live.
type Envelope struct {
	Version    byte
	ProgramID  string
	Threshold  int
	Shares     []CustodianShare
	ID         Identifier
	gcmNonce   []byte
	Ciphertext []byte
}

// Encode serializes the envelope.
func (e *Envelope) Encode() ([]byte, error) {
	program, err := decodeObjectID(e.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	if e.Threshold < 1 || e.Threshold > 255 {
		return nil, fmt.Errorf("encoding envelope: threshold %d out of range", e.Threshold)
	}
	if len(e.Shares) < e.Threshold || len(e.Shares) > 255 {
		return nil, fmt.Errorf("encoding envelope: %d shares with threshold %d", len(e.Shares), e.Threshold)
	}
	if len(e.gcmNonce) != gcmNonceLen {
		return nil, fmt.Errorf("encoding envelope: bad cipher nonce length %d", len(e.gcmNonce))
	}

	var buf bytes.Buffer
	buf.Write(envelopeMagic[:])
	buf.WriteByte(envelopeVersion)
	buf.Write(program)
	buf.WriteByte(byte(e.Threshold))
	buf.WriteByte(byte(len(e.Shares)))

	for _, s := range e.Shares {
		objID, err := decodeObjectID(s.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("encoding custodian entry: %w", err)
		}
		if len(s.Wrapped) > 0xffff {
			return nil, fmt.Errorf("encoding custodian entry: wrapped share too large")
		}
		buf.Write(objID)
		binary.Write(&buf, binary.BigEndian, s.Index)
		binary.Write(&buf, binary.BigEndian, uint16(len(s.Wrapped)))
		buf.Write(s.Wrapped)
	}

	buf.Write(e.ID[:])
	buf.Write(e.gcmNonce)
	binary.Write(&buf, binary.BigEndian, uint32(len(e.Ciphertext)))
	buf.Write(e.Ciphertext)

	return buf.Bytes(), nil
}

// ParseEnvelope decodes an envelope, rejecting truncated or malformed bytes.
func ParseEnvelope(data []byte) (*Envelope, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("envelope too short for header")
	}
	if magic != envelopeMagic {
		return nil, fmt.Errorf("not an envelope: bad magic %q", magic[:])
	}

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("envelope truncated at version")
	}
	if version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", version)
	}

	program := make([]byte, ListingIDLen)
	if _, err := io.ReadFull(r, program); err != nil {
		return nil, fmt.Errorf("envelope truncated at program id")
	}

	threshold, err := r.ReadByte()
	if err != nil || threshold == 0 {
		return nil, fmt.Errorf("envelope has invalid threshold")
	}
	count, err := r.ReadByte()
	if err != nil || count < threshold {
		return nil, fmt.Errorf("envelope has invalid custodian count")
	}

	shares := make([]CustodianShare, 0, count)
	for i := 0; i < int(count); i++ {
		objID := make([]byte, ListingIDLen)
		if _, err := io.ReadFull(r, objID); err != nil {
			return nil, fmt.Errorf("envelope truncated at custodian %d", i)
		}
		var index, wrappedLen uint16
		if err := binary.Read(r, binary.BigEndian, &index); err != nil {
			return nil, fmt.Errorf("envelope truncated at custodian %d index", i)
		}
		if err := binary.Read(r, binary.BigEndian, &wrappedLen); err != nil {
			return nil, fmt.Errorf("envelope truncated at custodian %d share", i)
		}
		wrapped := make([]byte, wrappedLen)
		if _, err := io.ReadFull(r, wrapped); err != nil {
			return nil, fmt.Errorf("envelope truncated at custodian %d share body", i)
		}
		shares = append(shares, CustodianShare{
			ObjectID: "0x" + hex.EncodeToString(objID),
			Index:    index,
			Wrapped:  wrapped,
		})
	}

	idBytes := make([]byte, IdentifierLen)
	if _, err := io.ReadFull(r, idBytes); err != nil {
		return nil, fmt.Errorf("envelope truncated at identifier")
	}
	id, err := ParseIdentifier(idBytes)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("envelope truncated at cipher nonce")
	}

	var ctLen uint32
	if err := binary.Read(r, binary.BigEndian, &ctLen); err != nil {
		return nil, fmt.Errorf("envelope truncated at ciphertext length")
	}
	ciphertext := make([]byte, ctLen)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return nil, fmt.Errorf("envelope truncated at ciphertext")
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("envelope has %d trailing bytes", r.Len())
	}

	return &Envelope{
		Version:    version,
		ProgramID:  "0x" + hex.EncodeToString(program),
		Threshold:  int(threshold),
		Shares:     shares,
		ID:         id,
		gcmNonce:   nonce,
		Ciphertext: ciphertext,
	}, nil
}
