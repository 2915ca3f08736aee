package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/orchestrator"
	"github.com/spf13/cobra"
)

type documentKind struct {
	use   string
	short string
	typ   domain.DocumentType
}

var (
	documentInvoice = documentKind{use: "invoice", short: "Issue an invoice (חשבונית עסקה)", typ: domain.DocumentTypeInvoice}
	documentReceipt = documentKind{use: "receipt", short: "Issue a receipt (קבלה) and reconcile the open invoice", typ: domain.DocumentTypeReceipt}
)

type creator interface {
	CreateInvoice(ctx context.Context, form domain.Form) (*orchestrator.Outcome, error)
	CreateReceipt(ctx context.Context, form domain.Form) (*orchestrator.Outcome, error)
}

func newDocumentCmd(kind documentKind) *cobra.Command {
	var form domain.Form

	cmd := &cobra.Command{
		Use:   kind.use,
		Short: kind.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, stop, err := setup(cmd)
			if err != nil {
				return err
			}
			defer stop()

			return issue(ctx, cmd.OutOrStdout(), a.Service, kind.typ, form.WithDefaultDate(civil.DateOf(today())))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&form.Description, "description", "d", "", "line item description")
	f.StringVarP(&form.Client, "client", "c", "", "client name")
	f.StringVarP(&form.Amount, "amount", "a", "", "amount in ILS")
	f.StringVar(&form.PaymentMethod, "payment-method", "", "payment method: העברה, מזומן, צ׳ק or אפליקציית תשלום")
	f.StringVar(&form.PaymentApp, "payment-app", "", "payment app when paying through an app: ביט or פיי-בוקס")
	f.StringVar(&form.Date, "date", "", "document date as YYYY-MM-DD (default today)")
	f.BoolVar(&form.SendEmail, "send", false, "email the document to the client")
	return cmd
}

// issue runs one document through the orchestrator and prints the outcome.
// A failed run is reported as an error after the outcome is printed.
func issue(ctx context.Context, w io.Writer, c creator, typ domain.DocumentType, form domain.Form) error {
	var (
		out *orchestrator.Outcome
		err error
	)
	if typ == domain.DocumentTypeInvoice {
		out, err = c.CreateInvoice(ctx, form)
	} else {
		out, err = c.CreateReceipt(ctx, form)
	}
	if out != nil {
		printOutcome(w, out)
	}
	if err != nil {
		var se *orchestrator.StageError
		if errors.As(err, &se) {
			return fmt.Errorf("failed at %s stage", se.Stage)
		}
		return err
	}
	return nil
}

func printOutcome(w io.Writer, out *orchestrator.Outcome) {
	fmt.Fprintln(w, out.Message)
	if out.DocumentID != "" {
		fmt.Fprintf(w, "Document: %s\n", out.DocumentID)
	}
	if out.Link != "" {
		fmt.Fprintf(w, "Link:     %s\n", out.Link)
	}
	if out.EntryID != "" {
		action := "created"
		if out.Reconciled {
			action = "updated"
		}
		fmt.Fprintf(w, "Notion:   %s (%s)\n", out.EntryID, action)
	}
	if out.EmailJobID != "" {
		fmt.Fprintf(w, "Email:    queued as %s\n", out.EmailJobID)
	}
}
