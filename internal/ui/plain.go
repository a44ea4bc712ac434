package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/desertthunder/musicagent/internal/agent"
)

// RunPlain runs the conversation line by line over in and out until the
// agent says goodbye, in is exhausted or ctx ends.
func RunPlain(ctx context.Context, conv Conversation, sess *agent.Session, in io.Reader, out io.Writer) error {
	writeResponse(out, conv.Greet(sess))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		resp := conv.Handle(ctx, sess, scanner.Text())
		if err := ctx.Err(); err != nil {
			return err
		}
		writeResponse(out, resp)
		if resp.Stop {
			return nil
		}
	}
}

func writeResponse(out io.Writer, resp agent.Response) {
	fmt.Fprintln(out, resp.Text)
	for i, c := range resp.Candidates {
		fmt.Fprintf(out, "  %d. %s\n", i+1, c.Label)
	}
}
