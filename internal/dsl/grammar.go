package dsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// crushLexer tokenizes devices, types, buckets, and rules, with `#` line
// comments. Keywords are lowercase and case-sensitive, so there is no
// CaseInsensitive lexer option. The trailing \b keeps "choose" from
// matching the prefix of "chooseleaf". Because "device" lexes as a
// Keyword, the grammar accepts it explicitly wherever a type name appears.
var crushLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Keyword", Pattern: `\b(device|type|offload|load|down|id|alg|item|weight|pos|rule|pool|min_size|max_size|step|take|chooseleaf|choose|firstn|indep|emit)\b`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Punct", Pattern: `[{}]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Program is the top-level AST: an unordered sequence of devices, types,
// buckets, and rules — all four top-level constructs may appear in any
// order.
type Program struct {
	Entries []*Entry `parser:"@@*"`
}

type Entry struct {
	Device *DeviceDecl `parser:"(  @@"`
	Type   *TypeDecl   `parser:" | @@"`
	Rule   *RuleDecl   `parser:" | @@"`
	Bucket *BucketDecl `parser:" | @@ )"`
}

// DeviceDecl: device <id> <name> [offload <f> | load <f> | down]
type DeviceDecl struct {
	ID      int      `parser:"\"device\" @Int"`
	Name    string   `parser:"@Ident"`
	Offload *float64 `parser:"( \"offload\" @Float"`
	Load    *float64 `parser:"| \"load\" @Float"`
	Down    bool     `parser:"| @\"down\" )?"`
}

// TypeDecl: type <level> <name>
type TypeDecl struct {
	Level int    `parser:"\"type\" @Int"`
	Name  string `parser:"@(Ident | \"device\")"`
}

// BucketDecl: <type-name> <bucket-name> { id <int> alg <name> item ... }
type BucketDecl struct {
	TypeName string      `parser:"@Ident"`
	Name     string      `parser:"@Ident \"{\""`
	ID       *int        `parser:"( \"id\" @Int )?"`
	Alg      string      `parser:"\"alg\" @Ident"`
	Items    []*ItemDecl `parser:"@@* \"}\""`
}

// ItemDecl: item <name> [weight <f>] [pos <int>]
type ItemDecl struct {
	Name   string   `parser:"\"item\" @Ident"`
	Weight *float64 `parser:"( \"weight\" @Float )?"`
	Pos    *int     `parser:"( \"pos\" @Int )?"`
}

// RuleDecl: rule [<name>] { pool <int> type <name> min_size <int> max_size <int> step* }
type RuleDecl struct {
	Name    *string     `parser:"\"rule\" @Ident?"`
	Pool    int         `parser:"\"{\" \"pool\" @Int"`
	Kind    string      `parser:"\"type\" @Ident"`
	MinSize int         `parser:"\"min_size\" @Int"`
	MaxSize int         `parser:"\"max_size\" @Int"`
	Steps   []*StepDecl `parser:"( \"step\" @@ )* \"}\""`
}

// StepDecl dispatches on the step's instruction kind.
type StepDecl struct {
	Take       *StepTakeDecl   `parser:"(  \"take\" @@"`
	ChooseLeaf *StepChooseDecl `parser:" | \"chooseleaf\" @@"`
	Choose     *StepChooseDecl `parser:" | \"choose\" @@"`
	Emit       bool            `parser:" | @\"emit\" )"`
}

type StepTakeDecl struct {
	Item string `parser:"@Ident"`
}

// StepChooseDecl: (firstn|indep) <n> type <type-name>
type StepChooseDecl struct {
	Indep  bool   `parser:"(  @\"indep\""`
	Firstn bool   `parser:" | @\"firstn\" )"`
	N      int    `parser:"@Int"`
	Type   string `parser:"\"type\" @(Ident | \"device\")"`
}

var crushParser = participle.MustBuild[Program](
	participle.Lexer(crushLexer),
	participle.Elide("Whitespace", "Comment"),
)
