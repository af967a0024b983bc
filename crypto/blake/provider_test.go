package blake

import (
	"testing"

	"github.com/stretchr/testify/require"

	ifcrypto "github.com/iron-fish/go-ironfish/crypto"
	"github.com/iron-fish/go-ironfish/types"
)

func TestNoteCommitmentIsDeterministic(t *testing.T) {
	p := New()
	note := types.NotePlaintext{Value: 42}
	note.PublicAddress[0] = 7

	require.Equal(t, p.NoteCommitment(note), p.NoteCommitment(note))

	other := note
	other.Value = 43
	require.NotEqual(t, p.NoteCommitment(note), p.NoteCommitment(other))
}

func TestNullifierDependsOnPosition(t *testing.T) {
	p := New()
	var key [ifcrypto.KeyLength]byte
	key[0] = 1
	note := types.NotePlaintext{Value: 1}

	n1 := p.Nullifier(key, note, 0)
	n2 := p.Nullifier(key, note, 1)
	require.NotEqual(t, n1, n2)
}

func TestMerkleEmptyIsStableAndDepthDependent(t *testing.T) {
	p := New()
	require.Equal(t, p.MerkleEmpty(0), p.MerkleEmpty(0))
	require.NotEqual(t, p.MerkleEmpty(0), p.MerkleEmpty(1))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	p := New()
	var ivk [ifcrypto.KeyLength]byte
	ivk[2] = 9
	var ephemeral [32]byte
	ephemeral[0] = 5

	note := types.NotePlaintext{Value: 100}
	note.PublicAddress[1] = 3

	ciphertext := EncryptForTesting(ivk, ephemeral, note)
	output := types.Output{EncryptedCiphertext: ciphertext, EphemeralPublicKey: ephemeral}

	decoded, ok := p.DecryptForOwner(output, ivk)
	require.True(t, ok)
	require.Equal(t, note.Value, decoded.Value)
	require.Equal(t, note.PublicAddress, decoded.PublicAddress)
}

func TestDecryptForOwnerRejectsWrongKey(t *testing.T) {
	p := New()
	var ivk, wrongIvk [ifcrypto.KeyLength]byte
	ivk[2] = 9
	wrongIvk[2] = 10
	var ephemeral [32]byte

	ciphertext := EncryptForTesting(ivk, ephemeral, types.NotePlaintext{Value: 1})
	output := types.Output{EncryptedCiphertext: ciphertext, EphemeralPublicKey: ephemeral}

	_, ok := p.DecryptForOwner(output, wrongIvk)
	require.False(t, ok)
}

func TestVerifySpendProofChecksAnchor(t *testing.T) {
	p := New()
	anchor := types.TreeRoot{Size: 5}
	spend := types.Spend{Proof: []byte{1}, CommitmentRoot: anchor.Root, TreeSize: anchor.Size}
	require.NoError(t, p.VerifySpendProof(spend, anchor))

	spend.TreeSize = 6
	require.Error(t, p.VerifySpendProof(spend, anchor))
}
