package topics

import "macgpt/internal/domain"

// Catalog returns the fixed, ordered set of knowledge topics. The order is
// load-bearing: classification ties resolve to the first topic listed here.
// Each description is the human-authored text whose embedding represents the
// topic during classification.
func Catalog() []domain.Topic {
	return []domain.Topic{
		{
			ID:          "acerca_de",
			Description: "Información general sobre la Licenciatura en Matemáticas Aplicadas y Computación (MAC) de la FES Acatlán: ¿Qué es la carrera?, misión, visión, objetivos, detalles de contacto general y diversos recursos disponibles para la comunidad estudiantil y aspirantes.",
		},
		{
			ID:          "convocatorias_eventos_avisos",
			Description: "Anuncios, noticias, comunicados importantes, convocatorias (como becas, procesos de inscripción, servicio social), detalles sobre eventos académicos (tales como seminarios, conferencias, talleres, cursos) y fechas relevantes para la comunidad de la Licenciatura MAC.",
		},
		{
			ID:          "olap_plan_de_estudios",
			Description: "Estructura curricular y académica detallada de la Licenciatura MAC: descripción del plan de estudios, listado de asignaturas o materias por semestre, sus claves, créditos, contenidos temáticos, objetivos de aprendizaje, seriación, y la descripción de las áreas de especialización, líneas terminales u optativas disponibles.",
		},
		{
			ID:          "perfiles",
			Description: "Perfiles relacionados con la Licenciatura MAC: describe el perfil de ingreso esperado de los aspirantes, incluyendo conocimientos y habilidades previas recomendadas, así como el perfil de egreso que tendrán los licenciados al finalizar, detallando capacidades, conocimientos y aptitudes profesionales, incluyendo posibles énfasis.",
		},
		{
			ID:          "profesores",
			Description: "Información sobre el personal docente, catedráticos y académicos de la Licenciatura MAC: nombres de los profesores, sus áreas de conocimiento, especialización o interés, materias que imparten, datos de contacto como correo electrónico, y potencialmente un resumen de su currículum vitae, publicaciones o trayectoria.",
		},
	}
}
