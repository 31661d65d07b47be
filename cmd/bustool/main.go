// bustool is an interactive harness for poking at a device tree built
// from a JSON plan. It runs against a simulated bus, so driver and
// topology behaviour (channel selects included) can be exercised without
// hardware.
//
// Commands: list, read <id> <reg>, write <id> <reg> <val>,
// block <id> <reg> <n>, select-stats, strict on|off, quit.
// Numbers accept 0x prefixes.
package main

import (
	"bufio"
	"flag"
	"os"
	"sort"

	"github.com/google/shlex"

	"i2ctree-go/i2c"
	"i2ctree-go/i2c/i2ctest"
	"i2ctree-go/tree"
	"i2ctree-go/x/fmtx"
	"i2ctree-go/x/strconvx"
)

const demoPlan = `{
	"version": 1,
	"nodes": [
		{
			"id": "mux0", "type": "tca9548", "addr": 112,
			"nodes": [
				{"id": "gpio0", "type": "mcp23008", "addr": 32, "channel": 2},
				{"id": "dac0", "type": "ad5245", "addr": 44, "channel": 5},
				{"id": "adc0", "type": "ad7998", "addr": 33, "channel": 5}
			]
		},
		{"id": "pot0", "type": "tpl0102", "addr": 80}
	]
}`

// regDevice is any node with a bus address and register access. Chip
// drivers and the multiplexer qualify by promotion; containers do not.
type regDevice interface {
	i2c.Node
	Addr() uint16
	ReadU8(reg uint8) (uint8, error)
	WriteU8(reg, val uint8) error
	ReadBlock(reg uint8, length int) ([]byte, error)
}

func main() {
	planPath := flag.String("plan", "", "JSON plan file (default: built-in demo plan)")
	sim := flag.Bool("sim", true, "run against a simulated bus")
	flag.Parse()

	doc := []byte(demoPlan)
	if *planPath != "" {
		b, err := os.ReadFile(*planPath)
		if err != nil {
			fatal("read plan: %v", err)
		}
		doc = b
	}
	plan, err := tree.ParsePlan(doc)
	if err != nil {
		fatal("parse plan: %v", err)
	}
	if !*sim {
		fatal("no hardware bus on this platform; run with -sim")
	}

	bus := i2ctest.New()
	populateSim(bus, plan.Nodes)

	t, err := tree.Build(bus, plan)
	if err != nil {
		fatal("build tree: %v", err)
	}
	fmtx.Printf("built %d nodes, %d roots; type 'list' to enumerate\n",
		len(t.ByID), len(t.Roots))

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmtx.Printf("> ")
		if !sc.Scan() {
			return
		}
		args, err := shlex.Split(sc.Text())
		if err != nil {
			fmtx.Printf("parse: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		if err := run(t, bus, args); err != nil {
			fmtx.Printf("error: %v\n", err)
		}
	}
}

func run(t *tree.Tree, bus *i2ctest.Bus, args []string) error {
	switch args[0] {
	case "list":
		ids := make([]string, 0, len(t.ByID))
		for id := range t.ByID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			n := t.ByID[id]
			if d, ok := n.(regDevice); ok {
				fmtx.Printf("%s\t%T\taddr 0x%x\n", id, n, d.Addr())
			} else {
				fmtx.Printf("%s\t%T\n", id, n)
			}
		}
		return nil

	case "read":
		d, reg, err := deviceReg(t, args, 3)
		if err != nil {
			return err
		}
		v, err := d.ReadU8(reg)
		if err != nil {
			return err
		}
		fmtx.Printf("0x%x\n", v)
		return nil

	case "write":
		d, reg, err := deviceReg(t, args, 4)
		if err != nil {
			return err
		}
		val, err := strconvx.ParseUint(args[3], 0, 8)
		if err != nil {
			return err
		}
		return d.WriteU8(reg, uint8(val))

	case "block":
		d, reg, err := deviceReg(t, args, 4)
		if err != nil {
			return err
		}
		n, err := strconvx.ParseUint(args[3], 0, 8)
		if err != nil {
			return err
		}
		data, err := d.ReadBlock(reg, int(n))
		if err != nil {
			return err
		}
		for _, b := range data {
			fmtx.Printf("0x%x ", b)
		}
		fmtx.Printf("\n")
		return nil

	case "select-stats":
		for id, n := range t.ByID {
			m, ok := n.(*i2c.TCA9548)
			if !ok {
				continue
			}
			writes := len(bus.Writes(m.Addr()))
			if ch, known := m.Selected(); known {
				fmtx.Printf("%s: channel %d selected, %d control writes\n", id, ch, writes)
			} else {
				fmtx.Printf("%s: selection unknown, %d control writes\n", id, writes)
			}
		}
		return nil

	case "strict":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			return fmtx.Errorf("usage: strict on|off")
		}
		if args[1] == "on" {
			i2c.EnableStrictErrors()
		} else {
			i2c.DisableStrictErrors()
		}
		return nil
	}
	return fmtx.Errorf("unknown command %q", args[0])
}

// deviceReg resolves the <id> <reg> prefix common to register commands.
func deviceReg(t *tree.Tree, args []string, want int) (regDevice, uint8, error) {
	if len(args) != want {
		return nil, 0, fmtx.Errorf("usage: %s <id> <reg> ...", args[0])
	}
	n, ok := t.ByID[args[1]]
	if !ok {
		return nil, 0, fmtx.Errorf("no node %q", args[1])
	}
	d, ok := n.(regDevice)
	if !ok {
		return nil, 0, fmtx.Errorf("%q has no registers", args[1])
	}
	reg, err := strconvx.ParseUint(args[2], 0, 8)
	if err != nil {
		return nil, 0, err
	}
	return d, uint8(reg), nil
}

// populateSim adds a chip behind every addressed node in the plan, so
// constructor reads have something to talk to.
func populateSim(bus *i2ctest.Bus, specs []tree.NodeSpec) {
	for i := range specs {
		if a := specs[i].Addr; a != 0 && bus.Chip(a) == nil {
			bus.AddChip(a)
		}
		populateSim(bus, specs[i].Nodes)
	}
}

func fatal(format string, a ...any) {
	fmtx.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
