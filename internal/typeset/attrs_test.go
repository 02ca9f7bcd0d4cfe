package typeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Name    string
	Balance int64
	secret  string //nolint:unused // present to prove enumeration skips it
	Active  bool
}

type redacted struct {
	Public string
	Token  string
}

func (r redacted) SerializableAttrs() []Attr {
	return []Attr{{Name: "Public", Value: r.Public}}
}

func TestReflectReaderDeclarationOrder(t *testing.T) {
	attrs, err := ReflectReader{}.ListAttributes(account{Name: "a", Balance: 10, Active: true})
	require.NoError(t, err)

	require.Len(t, attrs, 3, "unexported fields are skipped")
	assert.Equal(t, "Name", attrs[0].Name)
	assert.Equal(t, "Balance", attrs[1].Name)
	assert.Equal(t, "Active", attrs[2].Name)
	assert.Equal(t, int64(10), attrs[1].Value)
}

func TestReflectReaderDerefsPointers(t *testing.T) {
	attrs, err := ReflectReader{}.ListAttributes(&account{Name: "p"})
	require.NoError(t, err)
	require.Len(t, attrs, 3)
	assert.Equal(t, "p", attrs[0].Value)

	var nilAcc *account
	_, err = ReflectReader{}.ListAttributes(nilAcc)
	assert.Error(t, err)
}

func TestReflectReaderHonorsLister(t *testing.T) {
	attrs, err := ReflectReader{}.ListAttributes(redacted{Public: "ok", Token: "hide me"})
	require.NoError(t, err)

	require.Len(t, attrs, 1)
	assert.Equal(t, Attr{Name: "Public", Value: "ok"}, attrs[0])
}

func TestReflectReaderRejectsNonStructs(t *testing.T) {
	_, err := ReflectReader{}.ListAttributes(42)
	assert.Error(t, err)
	_, err = ReflectReader{}.ListAttributes([]int{1})
	assert.Error(t, err)
}
