package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/models"
)

func (a *App) promptID(prompt string) (int64, error) {
	text, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", text)
	}
	return id, nil
}

// addEntry is a small workflow helper that prompts for the common envelope
// fields (title, metadata) plus the concrete payload via details, then
// delegates the persist to the entry service.
func (a *App) addEntry(ctx context.Context, details func(context.Context) (models.TypedEntry, error)) error {
	es, masterKey := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	item, err := a.inputEnvelope(ctx, a.reader, details)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	id, err := es.Add(ctx, item, masterKey)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn(fmt.Sprintf("Saved as entry %d.", id))
	return nil
}

// AddNote collects a note body and persists it as a new entry.
func (a *App) AddNote(ctx context.Context) error {
	return a.addEntry(ctx, a.addNoteDetails)
}

// AddLogin collects login credentials and persists them as a new entry.
func (a *App) AddLogin(ctx context.Context) error {
	return a.addEntry(ctx, a.addLoginDetails)
}

// AddCreditCard collects credit-card fields and persists them as a new entry.
func (a *App) AddCreditCard(ctx context.Context) error {
	return a.addEntry(ctx, a.addCreditCardDetails)
}

func (a *App) addNoteDetails(context.Context) (models.TypedEntry, error) {
	text, err := GetMultiline(a.reader, "Enter note text", os.Stdout)
	if err != nil {
		return nil, err
	}
	return models.Note{Text: text}, nil
}

func (a *App) addLoginDetails(context.Context) (models.TypedEntry, error) {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return nil, err
	}
	password, err := getSimpleText(a.reader, "Enter password", os.Stdout)
	if err != nil {
		return nil, err
	}
	url, err := getSimpleText(a.reader, "Enter URL", os.Stdout)
	if err != nil {
		return nil, err
	}
	return models.Login{Username: username, Password: password, URL: url}, nil
}

func (a *App) addCreditCardDetails(context.Context) (models.TypedEntry, error) {
	number, err := getSimpleText(a.reader, "Enter card number", os.Stdout)
	if err != nil {
		return nil, err
	}
	expiration, err := getSimpleText(a.reader, "Enter expiration", os.Stdout)
	if err != nil {
		return nil, err
	}
	cvv, err := getSimpleText(a.reader, "Enter CVV", os.Stdout)
	if err != nil {
		return nil, err
	}
	holder, err := getSimpleText(a.reader, "Enter holder name", os.Stdout)
	if err != nil {
		return nil, err
	}
	return models.CreditCard{Number: number, Expiration: expiration, CVV: cvv, Holder: holder}, nil
}

// inputEnvelope gathers the common envelope data (title, metadata) and the
// typed payload via details, and wraps them for sealing.
func (a *App) inputEnvelope(
	ctx context.Context,
	r *bufio.Reader,
	details func(ctx context.Context) (models.TypedEntry, error),
) (models.Envelope, error) {
	var zero models.Envelope

	title, err := getSimpleText(r, "Enter title", os.Stdout)
	if err != nil {
		return zero, fmt.Errorf("get title: %w", err)
	}
	if title == "" {
		return zero, fmt.Errorf("title is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	payload, err := details(ctx)
	if err != nil {
		return zero, err
	}

	md, err := GetMetadata(r, os.Stdout)
	if err != nil {
		return zero, err
	}
	metadata, err := models.MetadataFromString(md)
	if err != nil {
		return zero, err
	}

	return models.Wrap(payload.GetType(), title, metadata, payload)
}

// List prints one line per visible entry. Decryption uses the in-memory
// master key; entries that cannot be decrypted still show up, flagged as
// unreadable.
func (a *App) List(ctx context.Context) error {
	es, masterKey := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	rows, err := es.List(ctx, masterKey)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	for _, row := range rows {
		printlnFn(fmt.Sprintf("%4d  %-12s %s", row.ID, row.Type, row.Title))
	}
	return nil
}

// Show fetches and displays a single entry by ID, fields first and then the
// metadata as "name: value" lines.
func (a *App) Show(ctx context.Context) error {
	es, masterKey := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	id, err := a.promptID("Enter record id to show")
	if err != nil {
		return err
	}

	envelope, err := es.Get(ctx, id, masterKey)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	printlnFn(envelope.Title)
	a.printDetails(*envelope)
	for _, md := range envelope.Metadata {
		printlnFn(fmt.Sprintf("%s: %s", md.Name, md.Value))
	}
	return nil
}

func (a *App) printDetails(envelope models.Envelope) {
	x, err := envelope.Unwrap()
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	switch item := x.(type) {
	case models.Note:
		printlnFn(fmt.Sprintf("Note: %s", item.Text))

	case models.Login:
		printlnFn(fmt.Sprintf("Username: %s", item.Username))
		printlnFn(fmt.Sprintf("Password: %s", item.Password))
		printlnFn(fmt.Sprintf("URL: %s", item.URL))

	case models.CreditCard:
		printlnFn(fmt.Sprintf("Number: %s", item.Number))
		printlnFn(fmt.Sprintf("Expiration: %s", item.Expiration))
		printlnFn(fmt.Sprintf("CVV: %s", item.CVV))
		printlnFn(fmt.Sprintf("Holder: %s", item.Holder))
	}
}

// Edit re-prompts every field of an existing entry and saves the result as a
// new version. The previous payload moves into the entry's history.
func (a *App) Edit(ctx context.Context) error {
	es, masterKey := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	id, err := a.promptID("Enter record id to edit")
	if err != nil {
		return err
	}

	current, err := es.Get(ctx, id, masterKey)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	var details func(context.Context) (models.TypedEntry, error)
	switch current.Type {
	case models.EntryTypeNote:
		details = a.addNoteDetails
	case models.EntryTypeLogin:
		details = a.addLoginDetails
	case models.EntryTypeCreditCard:
		details = a.addCreditCardDetails
	default:
		return fmt.Errorf("cannot edit entry type %q", current.Type)
	}

	envelope, err := a.inputEnvelope(ctx, a.reader, details)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if err := es.Update(ctx, id, envelope, masterKey); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Saved.")
	return nil
}

// Delete tombstones an entry. The record stays around (and replicates) until
// it is purged.
func (a *App) Delete(ctx context.Context) error {
	es, _ := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	id, err := a.promptID("Enter record id to delete")
	if err != nil {
		return err
	}

	if err := es.Delete(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Deleted. Use 'purge' to remove it permanently.")
	return nil
}

// Purge permanently removes an entry on this device and requests the same
// from the server. Asks for confirmation because there is no way back.
func (a *App) Purge(ctx context.Context) error {
	es, _ := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	id, err := a.promptID("Enter record id to purge")
	if err != nil {
		return err
	}

	ok, err := GetConfirm(a.reader, "Purge is permanent and cannot be undone. Continue?", os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("Cancelled.")
		return nil
	}

	if err := es.Purge(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Purged.")
	return nil
}

// History lists the archived previous versions of one entry, oldest first.
func (a *App) History(ctx context.Context) error {
	es, masterKey := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	id, err := a.promptID("Enter record id")
	if err != nil {
		return err
	}

	items, err := es.History(ctx, id, masterKey)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if len(items) == 0 {
		printlnFn("No earlier versions.")
		return nil
	}
	for _, item := range items {
		printlnFn(fmt.Sprintf("-- saved %s --", item.SavedAt.Format(time.RFC3339)))
		a.printDetails(item.Envelope)
	}
	return nil
}

// Conflicts lists the payloads of one entry that lost a sync conflict,
// oldest first.
func (a *App) Conflicts(ctx context.Context) error {
	es, masterKey := a.currentEntryService()
	if es == nil {
		printlnFn("Log in first.")
		return nil
	}

	id, err := a.promptID("Enter record id")
	if err != nil {
		return err
	}

	items, err := es.Conflicts(ctx, id, masterKey)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if len(items) == 0 {
		printlnFn("No conflict archive for this entry.")
		return nil
	}
	for _, item := range items {
		printlnFn(fmt.Sprintf("-- %s at %s --", item.Resolution, item.ResolvedAt.Format(time.RFC3339)))
		a.printDetails(item.Envelope)
	}
	return nil
}
