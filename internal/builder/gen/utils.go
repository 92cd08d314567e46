package gen

import "strings"

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// writeVar writes `NAME = v1 v2 ...`, or `NAME =` for an empty list
func writeVar(sb *strings.Builder, name string, values ...string) {
	write(sb, name, " =")
	for _, v := range values {
		if v != "" {
			write(sb, " ", v)
		}
	}
	writeln(sb)
}

// writeCommand writes one recipe line, continuing it over several lines when
// given more than one part
func writeCommand(sb *strings.Builder, parts ...string) {
	write(sb, "\t")
	for i, p := range parts {
		if i > 0 {
			write(sb, " \\\n\t")
		}
		write(sb, p)
	}
	writeln(sb)
}

// ref returns the make reference to a variable
func ref(name string) string { return "$(" + name + ")" }

// subst returns the suffix substitution reference $(name:from=to)
func subst(name, from, to string) string {
	return "$(" + name + ":" + from + "=" + to + ")"
}

func join(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func prefixed(prefix string, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, prefix+v)
	}
	return out
}
