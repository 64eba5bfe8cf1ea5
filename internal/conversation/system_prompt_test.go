package conversation

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dental-premium/internal/clinic"
)

func TestBuildSystemInstructionEmbedsPrices(t *testing.T) {
	services := clinic.DefaultServices()
	cfg := clinic.DefaultConfig()

	instruction, err := BuildSystemInstruction(services, cfg)
	require.NoError(t, err)

	for _, svc := range services {
		price := strconv.FormatFloat(svc.EffectivePrice(), 'f', -1, 64)
		assert.Contains(t, instruction, price, "service %s", svc.Name)
		assert.Contains(t, instruction, svc.Name)
	}
	assert.Contains(t, instruction, `"promoPrice":380`)
	assert.Contains(t, instruction, `"promoPrice":700`)
	assert.Contains(t, instruction, "- EMERGENCIAS: +51 900 111 222")
	assert.Contains(t, instruction, "deben llamar al +51 900 111 222 de inmediato")
	assert.Contains(t, instruction, "pide que llamen al +51 987 654 321.")
	assert.Contains(t, instruction, "- Horarios: "+cfg.Hours)
	assert.Contains(t, instruction, "Sede Comas")
}

func TestBuildSystemInstructionEmptyCatalog(t *testing.T) {
	instruction, err := BuildSystemInstruction(nil, clinic.Config{EmergencyPhone: "111"})
	require.NoError(t, err)
	assert.Contains(t, instruction, "- Servicios y Precios: []")
	assert.Contains(t, instruction, "- Sedes y Contacto: []")
	assert.Contains(t, instruction, "EMERGENCIAS: 111")
}

func TestBuildSystemInstructionUsesPromoWhenFlagged(t *testing.T) {
	promo := 99.5
	services := []clinic.ServiceOffering{{ID: "x", Name: "Blanqueamiento", Price: 120, IsPromo: true, PromoPrice: &promo}}

	instruction, err := BuildSystemInstruction(services, clinic.DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, instruction, fmt.Sprintf(`"promoPrice":%v`, promo))
}
