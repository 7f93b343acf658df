package badge

import (
	"fmt"

	"golang.org/x/text/language"
)

type definition struct {
	id    ID
	icon  string
	tier  Tier
	scope Scope
	text  map[language.Tag]text
}

type text struct {
	name        string
	description string
}

var (
	portuguese = language.BrazilianPortuguese
	english    = language.English
)

// Catalog entries are returned in the product language unless localized.
var defaultLanguage = portuguese

// supported is the order the matcher resolves against; the first tag is the
// fallback when nothing matches.
var supported = []language.Tag{portuguese, english}

var catalog = []definition{
	{
		id: LessonComplete, icon: "📗", tier: TierBronze, scope: ScopeLesson,
		text: map[language.Tag]text{
			portuguese: {"Aula Concluída", "Completou uma aula com sucesso"},
			english:    {"Lesson Complete", "Completed a lesson"},
		},
	},
	{
		id: LessonQuizPerfect, icon: "⭐", tier: TierGold, scope: ScopeLesson,
		text: map[language.Tag]text{
			portuguese: {"Nota Máxima", "Acertou 100% no quiz da aula"},
			english:    {"Top Score", "Scored 100% on the lesson quiz"},
		},
	},
	{
		id: AllLessonsComplete, icon: "🏆", tier: TierGold, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Todas as Aulas", "Completou todas as aulas da disciplina"},
			english:    {"All Lessons", "Completed every lesson in the discipline"},
		},
	},
	{
		id: AllQuizzesPerfect, icon: "💎", tier: TierDiamond, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Perfeição", "Acertou 100% em todos os quizzes das aulas"},
			english:    {"Flawless", "Scored 100% on every lesson quiz"},
		},
	},
	{
		id: AllQuizzesGreat, icon: "🥈", tier: TierSilver, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Ótimo Desempenho", "Média de pelo menos 80% nos quizzes das aulas"},
			english:    {"Great Performance", "Averaged at least 80% on lesson quizzes"},
		},
	},
	{
		id: AllQuizzesGood, icon: "🥉", tier: TierBronze, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Bom Desempenho", "Média de pelo menos 60% nos quizzes das aulas"},
			english:    {"Good Performance", "Averaged at least 60% on lesson quizzes"},
		},
	},
	{
		id: FinalQuizPerfect, icon: "🎯", tier: TierDiamond, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Quiz Geral Perfeito", "Acertou 100% no quiz geral da disciplina"},
			english:    {"Perfect Final", "Scored 100% on the discipline final quiz"},
		},
	},
	{
		id: FinalQuizPassed, icon: "✅", tier: TierSilver, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Quiz Aprovado", "Aprovado no quiz geral da disciplina"},
			english:    {"Final Passed", "Passed the discipline final quiz"},
		},
	},
	{
		id: DisciplineMaster, icon: "🎖️", tier: TierDiamond, scope: ScopeDiscipline,
		text: map[language.Tag]text{
			portuguese: {"Mestre da Disciplina", "Todas as aulas, todos os quizzes e o quiz geral com 100%"},
			english:    {"Discipline Master", "Every lesson, every quiz and the final quiz at 100%"},
		},
	},
	{
		id: AllDisciplinesComplete, icon: "👑", tier: TierDiamond, scope: ScopePlatform,
		text: map[language.Tag]text{
			portuguese: {"Formatura", "Completou todas as disciplinas da plataforma"},
			english:    {"Graduation", "Completed every discipline on the platform"},
		},
	},
}

var (
	index   = indexCatalog()
	matcher = language.NewMatcher(supported)
)

func indexCatalog() map[ID]definition {
	m := make(map[ID]definition, len(catalog))
	for _, d := range catalog {
		m[d.id] = d
	}
	return m
}

// IDs returns every catalog id in catalog order.
func IDs() []ID {
	ids := make([]ID, 0, len(catalog))
	for _, d := range catalog {
		ids = append(ids, d.id)
	}
	return ids
}

// Lookup returns the catalog badge for id in the default language.
func Lookup(id ID) (Badge, bool) {
	d, ok := index[id]
	if !ok {
		return Badge{}, false
	}
	return d.badge(defaultLanguage), true
}

// MustLookup is Lookup for ids known at compile time. An unknown id is a
// programming error and panics.
func MustLookup(id ID) Badge {
	b, ok := Lookup(id)
	if !ok {
		panic(fmt.Sprintf("badge: unknown id %q", id))
	}
	return b
}

// Display returns the catalog badge for id, or a bronze placeholder carrying
// the raw id when the id is unknown. Use it only when rendering stored data.
func Display(id ID) Badge {
	if b, ok := Lookup(id); ok {
		return b
	}
	return Badge{
		ID:    id,
		Name:  string(id),
		Icon:  "🏅",
		Tier:  TierBronze,
		Scope: ScopeDiscipline,
	}
}

// Localize rewrites the name and description of b for the best match of an
// Accept-Language style preference list. Unknown ids are returned unchanged.
func Localize(b Badge, accept string) Badge {
	d, ok := index[b.ID]
	if !ok {
		return b
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		tags = []language.Tag{defaultLanguage}
	}
	_, i, _ := matcher.Match(tags...)
	t := d.text[supported[i]]
	b.Name = t.name
	b.Description = t.description
	return b
}

// LocalizeAll applies Localize to every badge.
func LocalizeAll(badges []Badge, accept string) []Badge {
	out := make([]Badge, len(badges))
	for i, b := range badges {
		out[i] = Localize(b, accept)
	}
	return out
}

func (d definition) badge(lang language.Tag) Badge {
	t := d.text[lang]
	return Badge{
		ID:          d.id,
		Name:        t.name,
		Description: t.description,
		Icon:        d.icon,
		Tier:        d.tier,
		Scope:       d.scope,
	}
}
