package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/fishreg/internal/application/handlers"
	"github.com/ersonp/fishreg/internal/domain/entities"
)

type contactFlags struct {
	firstName    string
	lastName     string
	email        string
	phone        string
	title        string
	city         string
	state        string
	sector       string
	organization string
	sourceTag    string
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a record to a stable entity id",
		Long:  "Finds the contact, organization or action a record denotes, creating it when nothing matches.",
	}

	cmd.AddCommand(
		newResolveContactCmd(),
		newResolveOrganizationCmd(),
		newResolveActionCmd(),
	)
	return cmd
}

func newResolveContactCmd() *cobra.Command {
	var flags contactFlags

	cmd := &cobra.Command{
		Use:   "contact [name]",
		Short: "Resolve a contact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cand := flags.candidate(args)
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Resolution.HandleContact(cmd.Context(), cand)
				if err != nil {
					return err
				}
				return printResolution(cmd.OutOrStdout(), "contact", res)
			})
		},
	}

	cmd.Flags().StringVar(&flags.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&flags.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&flags.email, "email", "e", "", "Email address")
	cmd.Flags().StringVar(&flags.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&flags.title, "title", "", "Job title")
	cmd.Flags().StringVar(&flags.city, "city", "", "City")
	cmd.Flags().StringVarP(&flags.state, "state", "s", "", "State code")
	cmd.Flags().StringVar(&flags.sector, "sector", "", "Sector (commercial, recreational, ...)")
	cmd.Flags().StringVarP(&flags.organization, "org", "o", "", "Organization name")
	cmd.Flags().StringVar(&flags.sourceTag, "source", "cli", "Source tag")

	return cmd
}

func (f contactFlags) candidate(args []string) entities.ContactCandidate {
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	return entities.ContactCandidate{
		Name:         entities.Ptr(name),
		FirstName:    entities.Ptr(f.firstName),
		LastName:     entities.Ptr(f.lastName),
		Email:        entities.Ptr(f.email),
		Phone:        entities.Ptr(f.phone),
		Title:        entities.Ptr(f.title),
		City:         entities.Ptr(f.city),
		State:        entities.Ptr(f.state),
		Sector:       entities.Ptr(f.sector),
		Organization: entities.Ptr(f.organization),
		SourceTag:    entities.Ptr(f.sourceTag),
	}
}

func newResolveOrganizationCmd() *cobra.Command {
	var state, city, orgType, sourceTag string

	cmd := &cobra.Command{
		Use:     "org <name>",
		Aliases: []string{"organization"},
		Short:   "Resolve an organization",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cand := entities.OrganizationCandidate{
				Name:      entities.Ptr(args[0]),
				State:     entities.Ptr(state),
				City:      entities.Ptr(city),
				Type:      entities.Ptr(orgType),
				SourceTag: entities.Ptr(sourceTag),
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Resolution.HandleOrganization(cmd.Context(), cand)
				if err != nil {
					return err
				}
				return printResolution(cmd.OutOrStdout(), "organization", res)
			})
		},
	}

	cmd.Flags().StringVarP(&state, "state", "s", "", "State code")
	cmd.Flags().StringVar(&city, "city", "", "City")
	cmd.Flags().StringVarP(&orgType, "type", "t", "", "Organization type")
	cmd.Flags().StringVar(&sourceTag, "source", "cli", "Source tag")

	return cmd
}

func newResolveActionCmd() *cobra.Command {
	var description, phase, status, sourceTag string

	cmd := &cobra.Command{
		Use:   "action <title>",
		Short: "Resolve a regulatory action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cand := entities.ActionCandidate{
				Title:       entities.Ptr(args[0]),
				Description: entities.Ptr(description),
				Phase:       entities.Ptr(phase),
				Status:      entities.Ptr(status),
				SourceTag:   entities.Ptr(sourceTag),
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Resolution.HandleAction(cmd.Context(), cand)
				if err != nil {
					return err
				}
				return printResolution(cmd.OutOrStdout(), "action", res)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&phase, "phase", "", "Phase (scoping, public hearing, ...)")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	cmd.Flags().StringVar(&sourceTag, "source", "cli", "Source tag")

	return cmd
}

func printResolution(w io.Writer, kind string, res *handlers.Resolution) error {
	switch {
	case res.ID == "":
		_, err := fmt.Fprintf(w, "Could not resolve %s: not enough identifying information\n", kind)
		return err
	case res.Created:
		_, err := fmt.Fprintf(w, "Created %s %s\n", kind, res.ID)
		return err
	default:
		_, err := fmt.Fprintf(w, "Matched %s %s\n", kind, res.ID)
		return err
	}
}
