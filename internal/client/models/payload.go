package models

// SealedPayload is what actually travels and syncs: the overview and the
// full envelope encrypted separately, each with its own nonce, so listings
// can be decrypted without touching the details. It is stored as the opaque
// payload of a vault entry; the server never sees plaintext.
type SealedPayload struct {
	Overview      []byte `json:"overview"`
	NonceOverview []byte `json:"nonceOverview"`
	Details       []byte `json:"details"`
	NonceDetails  []byte `json:"nonceDetails"`
}

// ViewOverview is a decrypted listing row.
type ViewOverview struct {
	ID    int64
	Type  string
	Title string
}
