package shell

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
)

// shellcmd is one parsed command line: the command, its positional
// arguments and its -name value options.
type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: map[string]string{}}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			cmd.options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		cmd.args = append(cmd.args, fields[i])
	}
	return cmd, nil
}

func (c *shellcmd) intOption(key string, defaultI int) (int, error) {
	v, ok := c.options[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}
