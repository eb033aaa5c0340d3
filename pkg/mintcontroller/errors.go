package mintcontroller

import "errors"

var (
	// ErrInvalidInstructionData is returned for an unknown tag or a
	// truncated instruction payload.
	ErrInvalidInstructionData = errors.New("invalid instruction data")

	// ErrNotEnoughAccounts is returned before any logic runs when the
	// positional account list is shorter than the instruction requires.
	ErrNotEnoughAccounts = errors.New("not enough accounts")

	// ErrMissingRequiredSignature is returned when the account required to
	// sign the transaction did not.
	ErrMissingRequiredSignature = errors.New("missing required signature")

	// ErrUnauthorized is returned when the signer is not the authorized
	// server recorded in the config account.
	ErrUnauthorized = errors.New("signer is not the authorized server")

	// ErrCooldownActive is returned when the wallet's cooldown window has
	// not yet elapsed.
	ErrCooldownActive = errors.New("cooldown active")

	// ErrMintMismatch is returned when the mint account passed in does not
	// match the mint recorded in the config account.
	ErrMintMismatch = errors.New("mint account does not match config")

	// ErrInvalidAuthority is returned when the derived-authority account
	// does not match the address derived from the config's mint and bump.
	ErrInvalidAuthority = errors.New("derived authority account mismatch")
)
