package catalog

import (
	"testing"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_FindPack(t *testing.T) {
	g := &Game{Packs: []Pack{{PackID: "86"}, {PackID: "172"}}}

	p := g.FindPack("172")
	require.NotNil(t, p)
	assert.Equal(t, "172", p.PackID)
	assert.Nil(t, g.FindPack("missing"))
}

func TestPack_PriceFor(t *testing.T) {
	p := Pack{RetailPrice: 10000, ResellerPrice: 9200}
	assert.Equal(t, domain.Paise(10000), p.PriceFor(user.RoleUser))
	assert.Equal(t, domain.Paise(9200), p.PriceFor(user.RoleReseller))
	assert.Equal(t, domain.Paise(10000), p.PriceFor(user.RoleAdmin))

	noTier := Pack{RetailPrice: 500}
	assert.Equal(t, domain.Paise(500), noTier.PriceFor(user.RoleReseller))
}
