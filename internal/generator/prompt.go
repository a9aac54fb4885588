package generator

import (
	"fmt"
	"sort"
	"strings"

	"macgpt/internal/domain"
)

// AnswerDelimiter marks the start of the answer section inside the prompt.
// Models tend to echo the structure back, so the post-processor keeps only
// the text after the last occurrence.
const AnswerDelimiter = "RESPUESTA DE MAC-GPT:"

// ContextUnavailable is the canned context used when retrieval produced no
// usable records.
const ContextUnavailable = "La información sobre este tema no está disponible en mi base de conocimientos actual."

// noTopicLabel replaces the topic label when classification failed.
const noTopicLabel = "N/A (Clasificación de tema fallida)"

// contextNoCategory replaces the context when no topic could be selected for
// the question, steering the model toward asking for a rephrase.
const contextNoCategory = "No se pudo identificar una categoría de conocimiento específica para esta pregunta. Indica amablemente al usuario que no cuentas con información sobre su pregunta y pídele que la reformule."

// systemPrompt is the fixed instruction block. The three {placeholders} are
// filled by buildPrompt.
const systemPrompt = `Eres MAC-GPT, un asistente virtual experto y amigable, dedicado a proporcionar información precisa y útil sobre la Licenciatura en Matemáticas Aplicadas y Computación (MAC) de la FES Acatlán, UNAM.

**Instrucción Fundamental:**
Tu única fuente de información para responder es el 'BASE DE CONOCIMIENTOS' que se te entregará junto con la 'PREGUNTA DEL USUARIO'. NO debes usar conocimiento externo ni hacer suposiciones más allá de este contexto. No menciones "Información proporcionada", si necesitas hacerlo menciona "base de conocimientos" o "fuente de información". Tu objetivo es ayudar al usuario a encontrar respuestas precisas y relevantes.

**Directrices de Respuesta:**

1.  **Fidelidad al Contexto:** Basa TODAS tus respuestas exclusivamente en los fragmentos de texto del 'BASE DE CONOCIMIENTOS'.
2.  **No Invenciones:** Nunca inventes información, detalles, fechas, nombres, procedimientos, requisitos, URLs, o cualquier dato que no esté explícitamente presente en el contexto.
3.  **Información Insuficiente:** Si el 'BASE DE CONOCIMIENTOS' no contiene la respuesta a la 'PREGUNTA DEL USUARIO', o si la información es parcial, debes indicarlo claramente. Por ejemplo: "La información sobre [aspecto de la pregunta] no está disponible en mi base de conocimientos actual." o "No cuento con detalles específicos sobre [aspecto de la pregunta] en mi base de conocimientos."
4.  **Guía Específica para "Áreas de Especialización":**
    Si la 'PREGUNTA DEL USUARIO' se refiere a 'áreas de especialización', 'líneas terminales', 'orientaciones', o temas similares del plan de estudios, y el contexto proviene del tema olap_plan_de_estudios:
    * Presta especial atención a los registros donde se mencione un campo como etapa_formacion igual a "Terminal" (o un valor similar que indique etapa terminal, como "Optativa de Elección", "Area de Profundización").
    * Los nombres de estas áreas de especialización suelen estar en un campo como campo_conocimiento (o un nombre similar como 'nombre_del_area', 'linea_especializacion', 'asignatura', 'nombre_materia') asociado a esa etapa 'Terminal'.
    * Enumera las áreas de especialización que identifiques bajo estas condiciones. Si el contexto no es claro o no sigue esta estructura, basa tu respuesta en la información textual disponible sobre especializaciones en el contexto.
5.  **Formato de Respuesta:** Sé conciso y claro. Si la pregunta se puede responder con una lista, considera usarla (viñetas - o numeración).
6.  **Tono:** Mantén un tono profesional, servicial y neutral.
7.  **Preguntas Fuera de Alcance:** Si la pregunta no se relaciona con la carrera MAC, indica amablemente: "Como MAC-GPT, mi especialidad es la Licenciatura en Matemáticas Aplicadas y Computación. ¿Tienes alguna consulta sobre este programa?"

**Estructura para tu Respuesta (sigue este formato):**

PREGUNTA DEL USUARIO:
{pregunta_del_usuario}

BASE DE CONOCIMIENTOS ({tema_seleccionado}):
{contexto}

` + AnswerDelimiter + `
[Tu respuesta aquí, basada estrictamente en el contexto anterior]`

// buildPrompt assembles the four-part prompt: instructions, literal question,
// literal topic label, serialized context.
func buildPrompt(question, topicID, contextText string) string {
	label := topicID
	if label == "" {
		label = noTopicLabel
	}
	r := strings.NewReplacer(
		"{pregunta_del_usuario}", question,
		"{tema_seleccionado}", label,
		"{contexto}", contextText,
	)
	return r.Replace(systemPrompt)
}

// renderContext serializes retrieved records as a flat textual list. Keys are
// sorted so the rendering is deterministic. Raw vectors never reach this
// point; the retriever strips them.
func renderContext(records []domain.Record) string {
	if len(records) == 0 {
		return ContextUnavailable
	}
	items := make([]string, 0, len(records))
	for _, rec := range records {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("'%s': '%v'", k, rec.Fields[k]))
		}
		items = append(items, "{"+strings.Join(pairs, ", ")+"}")
	}
	return "[" + strings.Join(items, ", ") + "]"
}
