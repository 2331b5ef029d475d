package processor

import (
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/crypto/bls"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

type authenticateFunc func(c *call, st transition.IdentitySigned) (validation.Simple, error)

var identitySignature = version.NewDispatcher[authenticateFunc](
	version.IdentitySignature,
	authenticateIdentityV0,
)

// authenticateIdentity resolves the identity that signed the transition and
// verifies the signature with the key it references.
func authenticateIdentity[T transition.IdentitySigned](c *call, t T) (validation.Simple, error) {
	fn, err := identitySignature.Resolve(c.Version)
	if err != nil {
		return validation.Simple{}, err
	}

	return fn(c, t)
}

func authenticateIdentityV0(c *call, st transition.IdentitySigned) (validation.Simple, error) {
	id := st.GetOwnerID()

	signer, found, err := c.drive().FetchIdentity(c.Tx, id)
	if err != nil {
		return validation.Simple{}, xerrors.Errorf("couldn't fetch identity: %v", err)
	}

	c.pay(fee.SeekOp())

	if !found {
		return simple(consensus.IdentityNotFoundError{IdentityID: id}), nil
	}

	c.signer = signer

	key, found := signer.Key(st.GetSignaturePublicKeyID())
	if !found {
		return simple(consensus.MissingPublicKeyError{PublicKeyID: st.GetSignaturePublicKeyID()}), nil
	}

	if key.IsDisabled() {
		return simple(consensus.PublicKeyIsDisabledError{PublicKeyID: key.ID}), nil
	}

	if !hasPurpose(st.GetPurposeRequirement(), key.Purpose) {
		return simple(consensus.InvalidSignaturePublicKeyPurposeError{
			Purpose: uint8(key.Purpose),
			Allowed: purposesOf(st.GetPurposeRequirement()),
		}), nil
	}

	if !hasSecurityLevel(st.GetSecurityLevelRequirement(), key.SecurityLevel) {
		return simple(consensus.InvalidSignaturePublicKeySecurityLevelError{
			SecurityLevel: uint8(key.SecurityLevel),
			Allowed:       levelsOf(st.GetSecurityLevelRequirement()),
		}), nil
	}

	if key.Type.DataSize() == 0 {
		return simple(consensus.InvalidIdentityPublicKeyTypeError{KeyType: uint8(key.Type)}), nil
	}

	if c.Skip.Has(validation.CheckSignature) {
		return valid(), nil
	}

	if key.Type == identity.BLS && len(st.GetSignature()) != bls.SignatureSize {
		return simple(consensus.InvalidSignatureSizeError{
			Expected: bls.SignatureSize,
			Actual:   len(st.GetSignature()),
		}), nil
	}

	data, err := transition.SignableBytes(st)
	if err != nil {
		return validation.Simple{}, xerrors.Errorf("couldn't get signable bytes: %v", err)
	}

	c.pay(fee.SignatureOp(key.Type))

	err = key.Verify(data, st.GetSignature())
	if err != nil {
		return simple(consensus.InvalidStateTransitionSignatureError{}), nil
	}

	return valid(), nil
}

func hasPurpose(allowed []identity.Purpose, p identity.Purpose) bool {
	for _, a := range allowed {
		if a == p {
			return true
		}
	}

	return false
}

func hasSecurityLevel(allowed []identity.SecurityLevel, l identity.SecurityLevel) bool {
	for _, a := range allowed {
		if a == l {
			return true
		}
	}

	return false
}

func purposesOf(purposes []identity.Purpose) []uint8 {
	out := make([]uint8, len(purposes))
	for i, p := range purposes {
		out[i] = uint8(p)
	}

	return out
}

func levelsOf(levels []identity.SecurityLevel) []uint8 {
	out := make([]uint8, len(levels))
	for i, l := range levels {
		out[i] = uint8(l)
	}

	return out
}

type identityNonceFunc func(c *call, id types.Identifier, nonce uint64) (validation.Simple, error)

var identityNonce = version.NewDispatcher[identityNonceFunc](
	version.IdentityNonce,
	validateIdentityNonceV0,
)

func (c *call) validateIdentityNonce(id types.Identifier, nonce uint64) (validation.Simple, error) {
	fn, err := identityNonce.Resolve(c.Version)
	if err != nil {
		return validation.Simple{}, err
	}

	return fn(c, id, nonce)
}

func validateIdentityNonceV0(c *call, id types.Identifier, nonce uint64) (validation.Simple, error) {
	current, err := c.drive().FetchIdentityNonce(c.Tx, id)
	if err != nil {
		return validation.Simple{}, xerrors.Errorf("couldn't fetch nonce: %v", err)
	}

	c.pay(fee.SeekOp(), fee.LoadOp(8))

	return simple(checkNonce(id, current, nonce, c.Version.Limits.MaxIdentityNonceWindow)...), nil
}

type contractNonceFunc func(c *call, id, contractID types.Identifier, nonce uint64) (validation.Simple, error)

var identityContractNonce = version.NewDispatcher[contractNonceFunc](
	version.IdentityContractNonce,
	validateIdentityContractNonceV0,
)

func (c *call) validateIdentityContractNonce(id, contractID types.Identifier,
	nonce uint64) (validation.Simple, error) {

	fn, err := identityContractNonce.Resolve(c.Version)
	if err != nil {
		return validation.Simple{}, err
	}

	return fn(c, id, contractID, nonce)
}

func validateIdentityContractNonceV0(c *call, id, contractID types.Identifier,
	nonce uint64) (validation.Simple, error) {

	current, err := c.drive().FetchIdentityContractNonce(c.Tx, id, contractID)
	if err != nil {
		return validation.Simple{}, xerrors.Errorf("couldn't fetch contract nonce: %v", err)
	}

	c.pay(fee.SeekOp(), fee.LoadOp(8))

	return simple(checkNonce(id, current, nonce, c.Version.Limits.MaxIdentityNonceWindow)...), nil
}

// checkNonce accepts a nonce above the current one and at most the window
// ahead of it.
func checkNonce(id types.Identifier, current, nonce, window uint64) []consensus.Error {
	if nonce <= current {
		return []consensus.Error{consensus.InvalidIdentityNonceError{
			IdentityID:   id,
			CurrentNonce: current,
			SettingNonce: nonce,
			Reason:       "nonce already used",
		}}
	}

	if nonce-current > window {
		return []consensus.Error{consensus.InvalidIdentityNonceError{
			IdentityID:   id,
			CurrentNonce: current,
			SettingNonce: nonce,
			Reason:       "nonce too far in the future",
		}}
	}

	return nil
}
