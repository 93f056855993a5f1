package receipt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"lumina/orca/internal/domain"
)

// KeySource identifies where a Signer's keypair came from.
type KeySource string

const (
	KeySourceEnv       KeySource = "env"
	KeySourceFile      KeySource = "file"
	KeySourceEphemeral KeySource = "ephemeral"
)

// Signer produces and verifies Ed25519Signature2020-style VC proofs over
// canonicalized proof objects. It is immutable after construction and safe
// for concurrent use.
type Signer struct {
	keyID       string
	fingerprint string
	private     ed25519.PrivateKey
	public      ed25519.PublicKey
	source      KeySource
}

// NewSignerFromPEM builds a Signer from a PEM-encoded Ed25519 private key
// (PKCS#8), tagging its provenance as source (env or file — the two
// non-ephemeral modes differ only in where the PEM bytes came from).
func NewSignerFromPEM(keyID string, pemBytes []byte, source KeySource) (*Signer, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("receipt: no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("receipt: parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("receipt: key is not Ed25519")
	}
	return newSigner(keyID, priv, source)
}

// NewEphemeralSigner generates a fresh test keypair at process start. Its
// keyID is the fixed "orca-test-key"; the key fingerprint in the proof's
// verificationMethod differs per generated key.
func NewEphemeralSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("receipt: generate ephemeral key: %w", err)
	}
	s, err := newSigner("orca-test-key", priv, KeySourceEphemeral)
	if err != nil {
		return nil, err
	}
	s.public = pub
	s.fingerprint, err = fingerprintFor(pub)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newSigner(keyID string, priv ed25519.PrivateKey, source KeySource) (*Signer, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("receipt: could not derive public key")
	}
	fingerprint, err := fingerprintFor(pub)
	if err != nil {
		return nil, err
	}
	return &Signer{keyID: keyID, fingerprint: fingerprint, private: priv, public: pub, source: source}, nil
}

// fingerprintFor is base64 of the SHA-256 digest of the DER-encoded public
// key, per §4.7.
func fingerprintFor(pub ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("receipt: marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// IsEphemeral reports whether this signer was generated at process start
// rather than provisioned.
func (s *Signer) IsEphemeral() bool { return s.source == KeySourceEphemeral }

// Sign produces a VCProof whose signature covers the canonicalized proof
// fields only; no receipt hash or contract content is signed. created is
// injected so tests can pin it; production callers pass time.Now().
func (s *Signer) Sign(created time.Time) (*domain.VCProof, error) {
	proof := &domain.VCProof{
		Type:               "Ed25519Signature2020",
		Created:            created.UTC().Format(time.RFC3339),
		VerificationMethod: fmt.Sprintf("%s#%s", s.keyID, s.fingerprint),
		ProofPurpose:       "assertionMethod",
	}

	canonical, err := canonicalProofJSON(proof)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(s.private, canonical)
	proof.ProofValue = base64.StdEncoding.EncodeToString(sig)
	return proof, nil
}

// Verify checks proof.ProofValue against the canonicalized proof-minus-
// signature bytes.
func (s *Signer) Verify(proof *domain.VCProof) bool {
	if proof == nil || proof.ProofValue == "" {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(proof.ProofValue)
	if err != nil {
		return false
	}
	unsigned := *proof
	unsigned.ProofValue = ""
	canonical, err := canonicalProofJSON(&unsigned)
	if err != nil {
		return false
	}
	return ed25519.Verify(s.public, canonical, sig)
}

// canonicalProofJSON serializes a VCProof with proofValue omitted from the
// signed bytes: it copies only the four other proof fields into a wire
// struct, so any ProofValue already set on proof is ignored.
func canonicalProofJSON(proof *domain.VCProof) ([]byte, error) {
	type proofWire struct {
		Type               string `json:"type"`
		Created            string `json:"created"`
		VerificationMethod string `json:"verificationMethod"`
		ProofPurpose       string `json:"proofPurpose"`
	}
	return canonicalJSON(proofWire{
		Type:               proof.Type,
		Created:            proof.Created,
		VerificationMethod: proof.VerificationMethod,
		ProofPurpose:       proof.ProofPurpose,
	})
}

// ReadPEMFile is a small helper for the file-backed key mode.
func ReadPEMFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// VerifyProofWithPublicKey checks proof against a standalone Ed25519 public
// key, for callers (the orca CLI's verify-signature command) that have a
// public key but not a live Signer.
func VerifyProofWithPublicKey(proof *domain.VCProof, pub ed25519.PublicKey) bool {
	if proof == nil || proof.ProofValue == "" {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(proof.ProofValue)
	if err != nil {
		return false
	}
	unsigned := *proof
	unsigned.ProofValue = ""
	canonical, err := canonicalProofJSON(&unsigned)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, canonical, sig)
}

// ParsePublicKeyPEM decodes a PEM-encoded (PKIX, SubjectPublicKeyInfo)
// Ed25519 public key.
func ParsePublicKeyPEM(pemBytes []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("receipt: no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("receipt: parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("receipt: key is not Ed25519")
	}
	return pub, nil
}

// GenerateTestKeypair creates a fresh Ed25519 keypair and returns both halves
// PEM-encoded (PKCS#8 private, PKIX public) — the CLI's generate-test-keys
// command writes these directly to disk.
func GenerateTestKeypair() (privPEM, pubPEM []byte, keyID string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, "", fmt.Errorf("receipt: generate key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, "", fmt.Errorf("receipt: marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, nil, "", fmt.Errorf("receipt: marshal public key: %w", err)
	}

	privPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	fingerprint, err := fingerprintFor(pub)
	if err != nil {
		return nil, nil, "", err
	}
	keyID = fmt.Sprintf("orca-test-key-%s", fingerprint[:8])
	return privPEM, pubPEM, keyID, nil
}
