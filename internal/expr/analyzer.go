package expr

// Analyzer memoizes reference and function-call extraction per expression
// text. The flowgraph re-derives its dependency graph on every epoch, and most
// parameter texts do not change between epochs.
//
// The memo is dropped once it holds maxAnalyses texts, which bounds it for
// long editing sessions.
//
// An Analyzer is not safe for concurrent use; it is owned by one flowgraph.
type Analyzer struct {
	analyses map[string]*analysis
}

type analysis struct {
	// candidates are all names referenced, before filtering against the
	// names that happen to be in scope.
	candidates []string
	functions  []string
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{analyses: make(map[string]*analysis)}
}

const maxAnalyses = 4096

func (a *Analyzer) analyze(text string) *analysis {
	if cached, ok := a.analyses[text]; ok {
		return cached
	}
	if len(a.analyses) >= maxAnalyses {
		a.Reset()
	}
	res := &analysis{
		candidates: References(text, nil),
		functions:  CalledFunctions(text),
	}
	a.analyses[text] = res
	return res
}

// References returns the names in scope that text refers to.
func (a *Analyzer) References(text string, known func(string) bool) []string {
	candidates := a.analyze(text).candidates
	if known == nil {
		return append([]string(nil), candidates...)
	}
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if known(name) {
			out = append(out, name)
		}
	}
	return out
}

// CalledFunctions returns the sorted function names text calls.
func (a *Analyzer) CalledFunctions(text string) []string {
	return append([]string(nil), a.analyze(text).functions...)
}

// Len reports how many distinct expression texts have been analyzed.
func (a *Analyzer) Len() int {
	return len(a.analyses)
}

// Reset drops all memoized results.
func (a *Analyzer) Reset() {
	a.analyses = make(map[string]*analysis)
}
