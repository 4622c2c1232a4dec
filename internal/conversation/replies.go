package conversation

import "fmt"

// Reply templates sent by the capture flow. All customer-facing text is
// Spanish; the business targets the Peruvian events market.
const (
	replyWelcome = "Hola! Gracias por escribirnos \U0001F389 Organizamos todo tipo de eventos: " +
		"bodas, quinceañeros, cumpleaños, eventos corporativos y más. " +
		"Cuéntanos, ¿qué tipo de evento deseas organizar?"

	replyHandoff = "Perfecto, en breve uno de nuestros asesores se pondrá en contacto contigo. " +
		"Mientras tanto, si deseas, cuéntanos más sobre tu evento."

	replyAskGuests = "Anotado \U0001F4C5 ¿Para cuántos invitados aproximadamente sería el evento?"

	replyAskBudget = "Gracias! ¿Tienes un presupuesto aproximado para el evento? " +
		"Así podemos recomendarte las mejores opciones."

	replyAskContact = "Excelente \U0001F64C Con esa información ya podemos prepararte una propuesta. " +
		"¿Nos compartes tu nombre y un correo electrónico? " +
		"También podemos agendar una cita para conversar los detalles."

	replyPricing = "El precio depende del tipo de evento, la cantidad de invitados, la fecha y los " +
		"servicios que incluyas (local, catering, decoración, música, fotografía). " +
		"Cuéntanos sobre tu evento y te preparamos una cotización a medida."

	replyServices = "Ofrecemos organización integral de eventos: bodas, quinceañeros, " +
		"cumpleaños, aniversarios, baby showers, graduaciones y eventos corporativos. " +
		"Incluimos local, catering, decoración, sonido y coordinación el día del evento."

	replyDefault = "Disculpa, no te entendí bien \U0001F605 ¿Qué tipo de evento deseas " +
		"organizar? (boda, quinceañero, cumpleaños, corporativo...) " +
		"O escribe \"persona\" si prefieres hablar con un asesor."
)

func replyForEventType(eventType string) string {
	return fmt.Sprintf("Qué buena elección, un evento de %s \U0001F389 Para armarte una "+
		"propuesta necesitamos algunos datos: ¿ya tienes una fecha tentativa, cuántos "+
		"invitados esperas y cuál es tu presupuesto aproximado?", eventType)
}
