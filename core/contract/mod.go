// Package contract defines the data contracts that declare the document types
// and the tokens that identities can create, and the documents themselves.
package contract

import (
	"encoding/binary"
	"sort"

	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/internal/encoding"
	"golang.org/x/xerrors"
)

// Config is the set of options of a data contract.
type Config struct {
	ReadOnly     bool `cbor:"1,keyasint"`
	KeepsHistory bool `cbor:"2,keyasint"`
}

// Index is an index over the properties of a document type.
type Index struct {
	Name       string   `cbor:"1,keyasint"`
	Properties []string `cbor:"2,keyasint"`
	Unique     bool     `cbor:"3,keyasint"`
	// Contested unique indices can be claimed by several identities and are
	// resolved by a masternode vote funded at document creation.
	Contested bool `cbor:"4,keyasint"`
}

// DocumentType is a kind of document declared by a contract.
type DocumentType struct {
	Name         string  `cbor:"1,keyasint"`
	Indices      []Index `cbor:"2,keyasint"`
	Mutable      bool    `cbor:"3,keyasint"`
	CanBeDeleted bool    `cbor:"4,keyasint"`
	// Transferable documents can be given to another identity by their owner.
	Transferable bool `cbor:"5,keyasint,omitempty"`
	// DirectPurchase lets the owners list their documents at a price that
	// any identity can pay to become the new owner.
	DirectPurchase bool `cbor:"6,keyasint,omitempty"`
}

// Index returns the index with the name.
func (dt DocumentType) Index(name string) (Index, bool) {
	for _, idx := range dt.Indices {
		if idx.Name == name {
			return idx, true
		}
	}

	return Index{}, false
}

// TokenConfiguration declares a token of a contract.
type TokenConfiguration struct {
	BaseSupply uint64 `cbor:"1,keyasint"`
	// MaxSupply is the limit of the total supply, or zero for no limit.
	MaxSupply uint64 `cbor:"2,keyasint"`
	// MintingAllowed lets the contract owner mint new tokens.
	MintingAllowed bool `cbor:"3,keyasint"`
	// FreezeAllowed lets the contract owner freeze the tokens of an identity.
	FreezeAllowed bool `cbor:"4,keyasint,omitempty"`
}

// DataContract is the declaration of the document types and tokens owned by
// an identity.
type DataContract struct {
	ID            types.Identifier              `cbor:"1,keyasint"`
	OwnerID       types.Identifier              `cbor:"2,keyasint"`
	Version       uint32                        `cbor:"3,keyasint"`
	Config        Config                        `cbor:"4,keyasint"`
	DocumentTypes map[string]DocumentType       `cbor:"5,keyasint"`
	Tokens        map[uint16]TokenConfiguration `cbor:"6,keyasint,omitempty"`
}

// NewID returns the identifier of the contract created by the owner with the
// nonce.
func NewID(owner types.Identifier, nonce uint64) types.Identifier {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	return types.HashIdentifier(owner[:], buffer)
}

// DocumentType returns the document type with the name.
func (c DataContract) DocumentType(name string) (DocumentType, bool) {
	dt, found := c.DocumentTypes[name]
	return dt, found
}

// DocumentTypeNames returns the names of the document types in order.
func (c DataContract) DocumentTypeNames() []string {
	names := make([]string, 0, len(c.DocumentTypes))
	for name := range c.DocumentTypes {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// TokenPositions returns the positions of the tokens in order.
func (c DataContract) TokenPositions() []uint16 {
	positions := make([]uint16, 0, len(c.Tokens))
	for pos := range c.Tokens {
		positions = append(positions, pos)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i] < positions[j]
	})

	return positions
}

// Token returns the configuration of the token at the position.
func (c DataContract) Token(position uint16) (TokenConfiguration, bool) {
	cfg, found := c.Tokens[position]
	return cfg, found
}

// TokenID returns the identifier of the token at the position.
func TokenID(contractID types.Identifier, position uint16) types.Identifier {
	buffer := make([]byte, 2)
	binary.BigEndian.PutUint16(buffer, position)

	return types.HashIdentifier([]byte("token"), contractID[:], buffer)
}

// Document is an instance of a document type.
type Document struct {
	ID         types.Identifier       `cbor:"1,keyasint"`
	OwnerID    types.Identifier       `cbor:"2,keyasint"`
	Revision   uint64                 `cbor:"3,keyasint"`
	Properties map[string]interface{} `cbor:"4,keyasint"`
	CreatedAt  uint64                 `cbor:"5,keyasint"`
	UpdatedAt  uint64                 `cbor:"6,keyasint"`
	// Price is the credits asked for the document, or zero when it is not
	// for sale.
	Price types.Credits `cbor:"7,keyasint,omitempty"`
}

// NewDocumentID returns the identifier of a document created by the owner.
func NewDocumentID(contractID, owner types.Identifier, docType string, entropy [32]byte) types.Identifier {
	return types.HashIdentifier(contractID[:], owner[:], []byte(docType), entropy[:])
}

// IndexKey returns the key of the document properties in the index. It
// returns false if one of the properties is missing, in which case the
// document is not constrained by the index.
func IndexKey(idx Index, properties map[string]interface{}) ([]byte, bool, error) {
	values := make([]interface{}, len(idx.Properties))

	for i, name := range idx.Properties {
		value, found := properties[name]
		if !found || value == nil {
			return nil, false, nil
		}

		values[i] = value
	}

	key, err := encoding.Marshal(values)
	if err != nil {
		return nil, false, xerrors.Errorf("couldn't encode index values: %v", err)
	}

	return key, true, nil
}
