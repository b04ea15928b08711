package router

// Lexicons are matched against lowercased word tokens. Accented Spanish
// forms are listed alongside their plain spellings.

var crisisTerms = []string{
	"suicide", "suicidal", "kill myself", "end my life", "end it all", "want to die",
	"wanna die", "better off dead", "no reason to live", "self harm", "self-harm",
	"hurt myself", "cut myself", "overdose", "can't go on", "cant go on",
	"suicidio", "suicidarme", "matarme", "quiero morir", "quiero morirme",
	"no quiero vivir", "hacerme daño", "hacerme dano", "acabar con todo",
	"quitarme la vida",
}

var academicTerms = []string{
	"exam", "exams", "test", "quiz", "midterm", "finals", "study", "studying",
	"homework", "assignment", "deadline", "grade", "grades", "gpa", "class", "course",
	"lecture", "professor", "thesis", "essay", "semester", "procrastinat", "schedule",
	"examen", "estudiar", "estudio", "tarea", "clase", "notas", "profesor", "tesis",
	"semestre", "entrega",
}

var emotionalTerms = []string{
	"sad", "anxious", "anxiety", "stress", "stressed", "overwhelm", "lonely", "alone",
	"depress", "worried", "worry", "panic", "cry", "crying", "hopeless", "scared",
	"afraid", "angry", "exhausted", "burnout", "burned out", "can't sleep", "insomnia",
	"triste", "ansiedad", "ansioso", "ansiosa", "estresado", "estresada", "solo", "sola",
	"deprimido", "deprimida", "preocupado", "preocupada", "miedo", "agobiado", "agobiada",
	"llorar", "cansado", "cansada",
}
