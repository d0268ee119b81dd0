package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	bookTitle  string
	bookAuthor string
	bookYear   int
	bookPages  int
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book management commands",
	Long:  `Add, list, and delete books in your library.`,
}

type bookItem struct {
	ID            string `json:"_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishYear   int    `json:"publishYear"`
	PagesTotal    int    `json:"pagesTotal"`
	PagesFinished int    `json:"pagesFinished"`
}

var bookAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bookTitle == "" || bookAuthor == "" {
			return fmt.Errorf("title and author are required (--title, --author)")
		}
		if bookPages <= 0 {
			return fmt.Errorf("pages total is required (--pages)")
		}

		reqBody := map[string]any{
			"title":       bookTitle,
			"author":      bookAuthor,
			"publishYear": bookYear,
			"pagesTotal":  bookPages,
		}

		status, body, err := apiRequest(http.MethodPost, "/api/books", reqBody, false)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusCreated {
			printError("Failed to add book: " + apiErrorMessage(body))
			return fmt.Errorf("add book failed")
		}

		var created bookItem
		json.Unmarshal(body, &created)
		printSuccess(fmt.Sprintf("Added %q (%s pages: %d, id: %s)", created.Title, created.Author, created.PagesTotal, created.ID))
		return nil
	},
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your books grouped by reading state",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, body, err := apiRequest(http.MethodGet, "/api/books", nil, false)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusOK {
			printError("Failed to list books: " + apiErrorMessage(body))
			return fmt.Errorf("list books failed")
		}

		var shelf struct {
			GoingToRead      []bookItem `json:"goingToRead"`
			CurrentlyReading []bookItem `json:"currentlyReading"`
			FinishedReading  []bookItem `json:"finishedReading"`
		}
		if err := json.Unmarshal(body, &shelf); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		printGroup("Going to read", shelf.GoingToRead)
		printGroup("Currently reading", shelf.CurrentlyReading)
		printGroup("Finished", shelf.FinishedReading)
		return nil
	},
}

func printGroup(title string, books []bookItem) {
	fmt.Printf("%s (%d):\n", title, len(books))
	for _, b := range books {
		fmt.Printf("  [%s] %s — %s (%d/%d pages)\n", b.ID, b.Title, b.Author, b.PagesFinished, b.PagesTotal)
	}
	fmt.Println()
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete [book-id]",
	Short: "Delete a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, body, err := apiRequest(http.MethodDelete, "/api/books/"+args[0], nil, false)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusOK {
			printError("Failed to delete book: " + apiErrorMessage(body))
			return fmt.Errorf("delete book failed")
		}

		printSuccess("Book deleted")
		return nil
	},
}

func init() {
	bookAddCmd.Flags().StringVar(&bookTitle, "title", "", "book title")
	bookAddCmd.Flags().StringVar(&bookAuthor, "author", "", "book author")
	bookAddCmd.Flags().IntVar(&bookYear, "year", 2000, "publish year")
	bookAddCmd.Flags().IntVar(&bookPages, "pages", 0, "total pages")

	bookCmd.AddCommand(bookAddCmd)
	bookCmd.AddCommand(bookListCmd)
	bookCmd.AddCommand(bookDeleteCmd)
}
