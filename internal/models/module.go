package models

// Module is a practice module tracked for level advancement
type Module string

const (
	ModuleVocabulary Module = "vocabulary"
	ModuleGrammar    Module = "grammar"
	ModuleWriting    Module = "writing"
	ModulePhonetics  Module = "phonetics"
)

// ScoredModules lists every module that carries a score toward advancement,
// in the order they are reported
var ScoredModules = []Module{ModuleVocabulary, ModuleGrammar, ModuleWriting, ModulePhonetics}

// Valid reports whether m is a known practice module
func (m Module) Valid() bool {
	for _, module := range ScoredModules {
		if m == module {
			return true
		}
	}
	return false
}

// Binary reports whether the module is graded correct/incorrect.
// Writing and phonetics submit a 0-100 score instead and keep a running average.
func (m Module) Binary() bool {
	return m == ModuleVocabulary || m == ModuleGrammar
}
