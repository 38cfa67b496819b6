package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
)

// ProgramLoader supplies the AST the real front-end (parser/lexer,
// explicitly out of scope per spec.md §1) would produce. The CLI ships one
// implementation, a structural YAML loader good enough to exercise the
// whole pipeline end to end without a Datalog grammar.
type ProgramLoader interface {
	Load(path string) (*ast.Program, error)
}

// yamlLoader reads a declarative program description: relations with typed
// attributes and IO directives, plus clauses whose atoms are spelled out
// structurally (no expression grammar; arguments are bare variables,
// numeric literals, quoted string literals, or "_").
type yamlLoader struct{}

type yamlProgram struct {
	Relations []yamlRelation `yaml:"relations"`
	Clauses   []yamlClause   `yaml:"clauses"`
}

type yamlRelation struct {
	Name           string            `yaml:"name"`
	Attrs          []yamlAttr        `yaml:"attrs"`
	IO             string            `yaml:"io"`
	Representation string            `yaml:"representation"`
	Directives     map[string]string `yaml:"directives"`
}

type yamlAttr struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type yamlClause struct {
	Head yamlAtom      `yaml:"head"`
	Body []yamlLiteral `yaml:"body"`
}

type yamlAtom struct {
	Rel  string   `yaml:"rel"`
	Args []string `yaml:"args"`
}

type yamlLiteral struct {
	Atom *yamlAtom `yaml:"atom"`
	Not  *yamlAtom `yaml:"not"`
	// Constraint is "left op right" with op one of = != < <= > >=.
	Constraint string `yaml:"constraint"`
}

func (yamlLoader) Load(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading program %q", path)
	}
	var spec yamlProgram
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrapf(err, "parsing program %q", path)
	}

	p := ast.NewProgram()
	p.Types["number"] = ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	p.Types["unsigned"] = ast.NewPrimitive(p.Name("unsigned"), ast.KindUnsigned)
	p.Types["float"] = ast.NewPrimitive(p.Name("float"), ast.KindFloat)
	p.Types["symbol"] = ast.NewPrimitive(p.Name("symbol"), ast.KindSymbol)

	for _, r := range spec.Relations {
		attrs := make([]ast.Attribute, len(r.Attrs))
		for i, a := range r.Attrs {
			tn := a.Type
			if tn == "" {
				tn = "number"
			}
			if _, ok := p.Types[tn]; !ok {
				return nil, errors.Errorf("relation %q attribute %q: unknown type %q", r.Name, a.Name, tn)
			}
			attrs[i] = ast.Attribute{Name: a.Name, TypeName: p.Name(tn)}
		}
		rel := &ast.Relation{Name: p.Name(r.Name), Attributes: attrs, Directives: r.Directives}
		switch r.IO {
		case "input":
			rel.IO = ast.IOInput
		case "output":
			rel.IO = ast.IOOutput
		case "printsize":
			rel.IO = ast.IOPrintsize
		case "", "internal":
			rel.IO = ast.IOInternal
		default:
			return nil, errors.Errorf("relation %q: unknown io %q", r.Name, r.IO)
		}
		if r.Representation == "eqrel" {
			rel.Representation = ast.ReprEqrel
		}
		p.AddRelation(rel)
	}

	for _, c := range spec.Clauses {
		head, err := buildAtom(p, c.Head)
		if err != nil {
			return nil, err
		}
		body := make([]ast.Literal, 0, len(c.Body))
		for _, l := range c.Body {
			lit, err := buildLiteral(p, l)
			if err != nil {
				return nil, err
			}
			body = append(body, lit)
		}
		p.AddClause(&ast.Clause{Head: head, Body: body})
	}
	return p, nil
}

func buildLiteral(p *ast.Program, l yamlLiteral) (ast.Literal, error) {
	switch {
	case l.Atom != nil:
		a, err := buildAtom(p, *l.Atom)
		return a, err
	case l.Not != nil:
		a, err := buildAtom(p, *l.Not)
		if err != nil {
			return nil, err
		}
		return &ast.Negation{Atom: a}, nil
	case l.Constraint != "":
		return buildConstraint(l.Constraint)
	default:
		return nil, errors.New("body literal needs one of atom/not/constraint")
	}
}

func buildAtom(p *ast.Program, a yamlAtom) (*ast.Atom, error) {
	if _, ok := p.Relations[a.Rel]; !ok {
		return nil, errors.Errorf("atom references undeclared relation %q", a.Rel)
	}
	args := make([]ast.Argument, len(a.Args))
	for i, raw := range a.Args {
		args[i] = buildArg(raw)
	}
	return &ast.Atom{Relation: p.Name(a.Rel), Args: args}, nil
}

var constraintOps = []struct {
	text string
	op   ast.ConstraintOp
}{
	{"!=", ast.ConstrNeq}, {"<=", ast.ConstrLe}, {">=", ast.ConstrGe},
	{"=", ast.ConstrEq}, {"<", ast.ConstrLt}, {">", ast.ConstrGt},
}

func buildConstraint(text string) (ast.Literal, error) {
	for _, c := range constraintOps {
		i := strings.Index(text, c.text)
		if i < 0 {
			continue
		}
		left := strings.TrimSpace(text[:i])
		right := strings.TrimSpace(text[i+len(c.text):])
		if left == "" || right == "" {
			break
		}
		return &ast.BinaryConstraint{Op: c.op, Left: buildArg(left), Right: buildArg(right)}, nil
	}
	return nil, errors.Errorf("malformed constraint %q", text)
}

func buildArg(raw string) ast.Argument {
	if raw == "_" {
		return &ast.UnnamedVariable{}
	}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		return &ast.StringConstant{Value: raw[1 : len(raw)-1]}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &ast.NumberConstant{Value: domain.FromSigned(n)}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		k := domain.KindFloat
		return &ast.NumberConstant{Value: domain.FromFloat(f), Kind: &k}
	}
	return &ast.Variable{Name: raw}
}
