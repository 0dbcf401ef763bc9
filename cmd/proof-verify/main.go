// Command proof-verify loads an exported audit seal snapshot and verifies
// its hash chain independently of the running server, the way an auditor
// or a post-incident investigation would.
package main

import (
	"flag"
	"fmt"
	"os"

	"ledger-posting-engine/internal/auditseal"
	"ledger-posting-engine/internal/persist"
)

func main() {
	inPath := flag.String("in", "", "path to an audit seal snapshot exported by the posting engine")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}

	var snap auditseal.Snapshot
	if err := persist.LoadOrDefault(*inPath, &snap); err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(2)
	}

	chain := auditseal.New()
	if err := chain.Restore(snap); err != nil {
		fmt.Fprintln(os.Stderr, "restore:", err)
		os.Exit(2)
	}

	if err := chain.VerifyChain(); err != nil {
		switch typed := err.(type) {
		case *auditseal.TamperedError:
			fmt.Fprintf(os.Stderr, "FAIL: payload hash tampered at sequence=%d\n", typed.Sequence)
		case *auditseal.ChainBrokenError:
			fmt.Fprintf(os.Stderr, "FAIL: previous_seal linkage broken at sequence=%d\n", typed.Sequence)
		default:
			fmt.Fprintln(os.Stderr, "FAIL:", err)
		}
		os.Exit(1)
	}

	entries, err := chain.All()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(2)
	}

	head := ""
	if len(entries) > 0 {
		head = entries[len(entries)-1].Seal
	}
	fmt.Printf("OK: chain verified (%d entries). head=%s\n", len(entries), head)
}
