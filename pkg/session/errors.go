package session

import "errors"

var (
	// ErrMalformedID indicates a presented identifier could not be decoded
	ErrMalformedID = errors.New("session.malformed_id")

	// ErrIDGeneration indicates the random source failed while minting an identifier
	ErrIDGeneration = errors.New("session.id_generation_failed")

	// ErrIDCollision indicates a store could not find an unused identifier
	ErrIDCollision = errors.New("session.id_collision")

	// ErrConsumed indicates a Session, State or DataMut was used after a consuming call
	ErrConsumed = errors.New("session.consumed")

	// ErrNoSession indicates the request context carries no session handle
	ErrNoSession = errors.New("session.not_in_context")

	// ErrNoIDPresented indicates the transport found no identifier on the request
	ErrNoIDPresented = errors.New("session.no_id_presented")

	// ErrCodec indicates a record could not be encoded or decoded
	ErrCodec = errors.New("session.codec_failed")
)
