package shell

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/josephlewis42/nesh/core/vos"
	"mvdan.cc/sh/v3/syntax"
)

// expansionEnv returns a copy of the session variables with the special
// parameters $? and $$ set.
func (s *Shell) expansionEnv() *vos.MapEnv {
	env := vos.NewMapEnvFrom(s.env().Vars())
	_ = env.Setenv("?", strconv.Itoa(s.env().LastStatus()))
	_ = env.Setenv("$", strconv.Itoa(os.Getpid()))
	return env
}

// evalAssign expands assignments in order, so later values can refer to
// earlier ones, and returns them as "key=value" pairs. env isn't modified.
func (s *Shell) evalAssign(env vos.VEnv, assigns []*syntax.Assign) ([]string, error) {
	tmpEnv := vos.NewMapEnvFrom(env)

	var out []string
	for _, assign := range assigns {
		switch {
		case assign.Name == nil:
			continue
		case assign.Array != nil, assign.Index != nil:
			return nil, s.unsupported(assign, "array assignment")
		}

		value, err := s.evalWord(tmpEnv, assign.Value)
		if err != nil {
			return nil, err
		}
		if assign.Append {
			value = tmpEnv.Getenv(assign.Name.Value) + value
		}

		if err := tmpEnv.Setenv(assign.Name.Value, value); err != nil {
			return nil, err
		}
		out = append(out, assign.Name.Value+"="+value)
	}

	return out, nil
}

func (s *Shell) evalWord(env vos.VEnv, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}

	var sb strings.Builder
	for i, part := range word.Parts {
		if lit, ok := part.(*syntax.Lit); ok && i == 0 {
			sb.WriteString(unescapeLit(expandTilde(lit.Value, s.env().Home()), false))
			continue
		}

		value, err := s.evalWordPart(env, part, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(value)
	}
	return sb.String(), nil
}

func (s *Shell) evalWordPart(env vos.VEnv, part syntax.WordPart, quoted bool) (string, error) {
	switch part := part.(type) {
	case *syntax.Lit:
		return unescapeLit(part.Value, quoted), nil

	case *syntax.SglQuoted:
		if part.Dollar {
			return "", s.unsupported(part, "$'' quoting")
		}
		return part.Value, nil

	case *syntax.DblQuoted:
		var sb strings.Builder
		for _, subPart := range part.Parts {
			value, err := s.evalWordPart(env, subPart, true)
			if err != nil {
				return "", err
			}
			sb.WriteString(value)
		}
		return sb.String(), nil

	case *syntax.ParamExp:
		switch {
		case part.Param == nil:
			return "", s.unsupported(part, "parameter expansion")
		case part.Excl, part.Width, part.Index != nil, part.Slice != nil,
			part.Repl != nil, part.Exp != nil, part.Names != 0:
			return "", s.unsupported(part, "parameter expansion ${"+part.Param.Value+"...}")
		}

		value := env.Getenv(part.Param.Value)
		if part.Length {
			return strconv.Itoa(utf8.RuneCountInString(value)), nil
		}
		return value, nil

	case *syntax.CmdSubst:
		return "", s.unsupported(part, "command substitution")

	case *syntax.ArithmExp:
		return "", s.unsupported(part, "arithmetic expansion")

	default:
		return "", s.unsupported(part, "word")
	}
}

// expandTilde replaces a leading "~" or "~/" with home.
func expandTilde(lit, home string) string {
	if lit == "~" || strings.HasPrefix(lit, "~/") {
		return home + lit[1:]
	}
	return lit
}

// unescapeLit removes backslash escapes from a literal. Inside double quotes
// a backslash only escapes $, `, ", \ and newline.
func unescapeLit(lit string, quoted bool) string {
	if !strings.Contains(lit, `\`) {
		return lit
	}

	var sb strings.Builder
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 == len(lit) {
			sb.WriteByte(c)
			continue
		}

		next := lit[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
