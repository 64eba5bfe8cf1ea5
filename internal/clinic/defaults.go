package clinic

func price(v float64) *float64 { return &v }

// DefaultServices returns the catalog written on first run. Each call
// returns a fresh slice.
func DefaultServices() []ServiceOffering {
	return []ServiceOffering{
		{
			ID:          "1",
			Name:        "Implantes Dentales",
			Price:       1200,
			Description: "Restauración permanente de piezas perdidas utilizando raíces de titanio de alta biocompatibilidad que devuelven la fuerza y estética natural.",
		},
		{
			ID:          "2",
			Name:        "Prótesis Flexibles",
			Price:       450,
			IsPromo:     true,
			PromoPrice:  price(380),
			Description: "Soluciones removibles confortables y estéticas, fabricadas con materiales termoplásticos que se adaptan perfectamente a tu encía sin ganchos metálicos.",
		},
		{
			ID:          "3",
			Name:        "Prótesis Fijas",
			Price:       600,
			Description: "Coronas y puentes de porcelana o zirconio diseñados para permanecer fijos en la boca, recuperando la funcionalidad masticatoria de por vida.",
		},
		{
			ID:          "4",
			Name:        "Odontopediatría",
			Price:       60,
			Description: "Atención especializada para niños en un ambiente lúdico, enfocada en la prevención y tratamiento temprano para asegurar sonrisas sanas desde la infancia.",
		},
		{
			ID:          "5",
			Name:        "Carillas Dentales",
			Price:       850,
			IsPromo:     true,
			PromoPrice:  price(700),
			Description: "Láminas ultrafinas de porcelana o resina que se adhieren al frente del diente para corregir color, forma y posición con resultados altamente estéticos.",
		},
		{
			ID:          "6",
			Name:        "Estética Dental",
			Price:       250,
			Description: "Tratamientos integrales de diseño de sonrisa que armonizan la forma, color y posición de los dientes con las facciones del rostro.",
		},
		{
			ID:          "7",
			Name:        "Prótesis Totales",
			Price:       900,
			Description: "Rehabilitación completa para pacientes que han perdido todas sus piezas dentales, devolviendo la capacidad de hablar, comer y sonreír con seguridad.",
		},
		{
			ID:          "8",
			Name:        "Ortodoncia",
			Price:       1500,
			Description: "Corrección de la alineación dental y problemas de mordida utilizando brackets metálicos, estéticos o alineadores invisibles de última generación.",
		},
		{
			ID:          "9",
			Name:        "Endodoncia",
			Price:       300,
			Description: "Tratamiento de conductos especializado para salvar dientes con infecciones profundas o traumas, eliminando el dolor y preservando la pieza natural.",
		},
	}
}

// DefaultConfig returns the clinic configuration written on first run.
func DefaultConfig() Config {
	return Config{
		Phone:          "+51 987 654 321",
		EmergencyPhone: "+51 900 111 222",
		Address:        "Sedes en Huaral y Comas",
		Hours:          "Lun-Vie: 9:00 AM - 8:00 PM | Sáb: 9:00 AM - 2:00 PM",
		Email:          "contacto@dentalpremium.pe",
		Vision:         "Brindar atención odontológica de calidad con un enfoque integral, promoviendo la salud y bienestar dental de nuestros pacientes a través de tratamientos personalizados y tecnología avanzada. Nos comprometemos a crear un ambiente acogedor y seguro, donde cada paciente se sienta valorado y escuchado.",
		Mission:        "Proporcionar soluciones odontológicas efectivas y accesibles, enfocándonos en la educación y prevención para garantizar sonrisas saludables y felices en nuestra comunidad.",
		Values:         "Nuestro objetivo principal es cuidar de tu salud buco dental, nos preocupa lo mismo que a ti: tu sonrisa, por ello cada día trabajamos mediante las técnicas más avanzadas en odontología mínimamente invasiva y conservadora para conseguir la sonrisa que siempre soñaste.",
		Quality:        "Partimos de la premisa que cada paciente es único, en consecuencia, tu caso es particular. Es por ello, que llevamos un estricto control para recuperar tu salud bucodental y lograr estéticamente la sonrisa de tus sueños.",
		Locations: []Location{
			{ID: "h1", Name: "Sede Huaral Centro", Address: "Calle Derecha 123, Huaral", Phone: "01 246 7890", WhatsApp: "51987654321"},
			{ID: "h2", Name: "Sede Huaral Norte", Address: "Av. Solar 456, Huaral", Phone: "01 246 1122", WhatsApp: "51987654321"},
			{ID: "c1", Name: "Sede Comas", Address: "Av. Túpac Amaru 7890, Comas, Lima", Phone: "01 534 5566", WhatsApp: "51987654321"},
		},
	}
}
