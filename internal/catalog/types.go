package catalog

// File is the decoded form of a definition file.
type File struct {
	Relations map[string]Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
	Queries   map[string]Node     `json:"queries,omitempty" yaml:"queries,omitempty"`
	Groups    map[string][]Member `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Relation declares an extensional predicate by column names or by arity.
// With only an arity, columns are named field1..fieldN.
type Relation struct {
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Arity   int      `json:"arity,omitempty" yaml:"arity,omitempty"`
}

// Member is one predicate of a recursive group: base unioned with step.
type Member struct {
	Name string `json:"name" yaml:"name"`
	Base Node   `json:"base" yaml:"base"`
	Step Node   `json:"step" yaml:"step"`
}

// Node is a query node. Exactly one field is set.
type Node struct {
	EDB     string       `json:"edb,omitempty" yaml:"edb,omitempty"`
	Query   string       `json:"query,omitempty" yaml:"query,omitempty"`
	Ref     string       `json:"ref,omitempty" yaml:"ref,omitempty"`
	Filter  *FilterNode  `json:"filter,omitempty" yaml:"filter,omitempty"`
	Map     *MapNode     `json:"map,omitempty" yaml:"map,omitempty"`
	FlatMap *FlatMapNode `json:"flatMap,omitempty" yaml:"flatMap,omitempty"`
	Union   []Node       `json:"union,omitempty" yaml:"union,omitempty"`
}

// FilterNode keeps the rows of From for which Where holds.
type FilterNode struct {
	From  Node   `json:"from" yaml:"from"`
	As    string `json:"as,omitempty" yaml:"as,omitempty"`
	Where Expr   `json:"where" yaml:"where"`
}

// MapNode transforms the rows of From by To.
type MapNode struct {
	From Node   `json:"from" yaml:"from"`
	As   string `json:"as,omitempty" yaml:"as,omitempty"`
	To   Expr   `json:"to" yaml:"to"`
}

// FlatMapNode joins every row of From with the rows of Body.
type FlatMapNode struct {
	From Node   `json:"from" yaml:"from"`
	As   string `json:"as,omitempty" yaml:"as,omitempty"`
	Body Node   `json:"body" yaml:"body"`
}

// Expr is a column expression. Exactly one field is set.
type Expr struct {
	Col    string  `json:"col,omitempty" yaml:"col,omitempty"`
	Ref    string  `json:"ref,omitempty" yaml:"ref,omitempty"`
	Lit    any     `json:"lit,omitempty" yaml:"lit,omitempty"`
	Eq     []Expr  `json:"eq,omitempty" yaml:"eq,omitempty"`
	And    []Expr  `json:"and,omitempty" yaml:"and,omitempty"`
	Plus   []Expr  `json:"plus,omitempty" yaml:"plus,omitempty"`
	Tuple  []Expr  `json:"tuple,omitempty" yaml:"tuple,omitempty"`
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field is one named column of a row expression.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value Expr   `json:"value" yaml:"value"`
}
