package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/dental-premium/internal/clinic"
)

// BuildSystemInstruction renders the assistant instruction from the live
// catalog and clinic configuration. The catalog and branches are embedded as
// JSON so prices reach the model exactly as stored.
func BuildSystemInstruction(services []clinic.ServiceOffering, cfg clinic.Config) (string, error) {
	if services == nil {
		services = []clinic.ServiceOffering{}
	}
	locations := cfg.Locations
	if locations == nil {
		locations = []clinic.Location{}
	}

	servicesJSON, err := json.Marshal(services)
	if err != nil {
		return "", fmt.Errorf("conversation: encode services: %w", err)
	}
	locationsJSON, err := json.Marshal(locations)
	if err != nil {
		return "", fmt.Errorf("conversation: encode locations: %w", err)
	}

	var b strings.Builder
	b.WriteString("Eres el asistente virtual inteligente de \"Dental Premium\". \n")
	b.WriteString("Tu objetivo es ayudar a los pacientes con información precisa y amable.\n\n")
	b.WriteString("INFORMACIÓN DE LA CLÍNICA (FUENTE DE VERDAD):\n")
	fmt.Fprintf(&b, "- Servicios y Precios: %s\n", servicesJSON)
	fmt.Fprintf(&b, "- Sedes y Contacto: %s\n", locationsJSON)
	fmt.Fprintf(&b, "- Horarios: %s\n", cfg.Hours)
	fmt.Fprintf(&b, "- Teléfono General: %s\n", cfg.Phone)
	fmt.Fprintf(&b, "- EMERGENCIAS: %s\n\n", cfg.EmergencyPhone)
	b.WriteString("REGLAS CRÍTICAS:\n")
	fmt.Fprintf(&b, "1. Usa SÓLO la información proporcionada arriba. Si no sabes algo, pide que llamen al %s.\n", cfg.Phone)
	fmt.Fprintf(&b, "2. En caso de dolor fuerte o trauma, indica que es una EMERGENCIA y deben llamar al %s de inmediato.\n", cfg.EmergencyPhone)
	b.WriteString("3. No inventes descuentos ni precios que no estén en la lista.\n")
	b.WriteString("4. Responde de forma concisa y profesional en español.")
	return b.String(), nil
}
