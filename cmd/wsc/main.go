package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/winsomenet/winsome/client"
	"github.com/winsomenet/winsome/wire"
)

var usage = `Usage:

	wsc [server-address] [side-channel-address]

Interactive commands:

	register <user> <tag> [tag...]   create an account
	login <user>                     start a session
	logout                           end the session and disconnect
	follow <user>                    follow a user
	unfollow <user>                  stop following a user
	users                            list users sharing your tags
	post <title> | <content>         publish a post
	delete <id>                      delete one of your posts
	show <id>                        show a post with its comments
	feed [page]                      show your feed
	blog [page]                      show your blog
	rewin <id>                       republish a post from your feed
	rate <id> +|-                    vote a post
	ratec <id> +|-                   vote a comment
	comment <id> <text>              comment a post
	wallet                           show your wallet
	quit

`

func readPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Printf("could not read password: %v\n", err)
		os.Exit(1)
	}
	return string(password)
}

func main() {
	godotenv.Load()
	server := "localhost:6789"
	side := "localhost:6790"
	if addr := os.Getenv("WINSOME_SERVER"); addr != "" {
		server = addr
	}
	if addr := os.Getenv("WINSOME_SIDE"); addr != "" {
		side = addr
	}
	if len(os.Args) > 1 {
		server = os.Args[1]
	}
	if len(os.Args) > 2 {
		side = os.Args[2]
	}

	conn, err := client.Dial(server)
	if err != nil {
		fmt.Printf("could not reach server at %v: %v\n", server, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Print(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "register":
			if len(fields) < 3 {
				fmt.Println("register <user> <tag> [tag...]")
				continue
			}
			hash := client.HashPassword(readPassword("password: "))
			if err := client.Register(side, fields[1], hash, fields[2:]); err != nil {
				fmt.Printf("registration failed: %v\n", err)
				continue
			}
			fmt.Println("registered")
		case "login":
			if len(fields) != 2 {
				fmt.Println("login <user>")
				continue
			}
			hash := client.HashPassword(readPassword("password: "))
			resp, err := conn.Login(fields[1], hash)
			report(resp.Code, err)
		case "logout":
			code, err := conn.Logout()
			report(code, err)
			if err == nil {
				return
			}
		case "follow", "unfollow":
			if len(fields) != 2 {
				fmt.Printf("%v <user>\n", fields[0])
				continue
			}
			var code wire.Code
			var err error
			if fields[0] == "follow" {
				code, err = conn.Follow(fields[1])
			} else {
				code, err = conn.Unfollow(fields[1])
			}
			report(code, err)
		case "users":
			resp, err := conn.ListUsers()
			report(resp.Code, err)
			for _, u := range resp.Users {
				fmt.Printf("  %v  [%v]\n", u.Username, strings.Join(u.Tags, ", "))
			}
		case "post":
			rest := strings.Join(fields[1:], " ")
			parts := strings.SplitN(rest, "|", 2)
			if len(parts) != 2 {
				fmt.Println("post <title> | <content>")
				continue
			}
			resp, err := conn.CreatePost(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
			report(resp.Code, err)
			if err == nil && resp.ID != 0 {
				fmt.Printf("  post %v\n", resp.ID)
			}
		case "delete":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			code, err := conn.DeletePost(id)
			report(code, err)
		case "show":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			resp, err := conn.ShowPost(id)
			report(resp.Code, err)
			if err == nil && resp.Code == 0 {
				p := resp.Post
				fmt.Printf("  %v by %v (+%v/-%v)\n  %v\n", p.Title, p.Author, p.Upvotes, p.Downvotes, p.Content)
				for _, c := range p.Comments {
					fmt.Printf("    [%v] %v: %v\n", c.ID, c.Owner, c.Content)
				}
			}
		case "feed", "blog":
			page := int32(0)
			if len(fields) > 1 {
				n, err := strconv.Atoi(fields[1])
				if err != nil {
					fmt.Println("page must be a number")
					continue
				}
				page = int32(n)
			}
			var resp wire.PostListResponse
			var err error
			if fields[0] == "feed" {
				resp, err = conn.ShowFeed(page)
			} else {
				resp, err = conn.ViewBlog(page)
			}
			report(resp.Code, err)
			for _, p := range resp.Posts {
				if p.Original != 0 {
					fmt.Printf("  [%v] %v rewins post %v\n", p.ID, p.Author, p.Original)
				} else {
					fmt.Printf("  [%v] %v: %v\n", p.ID, p.Author, p.Title)
				}
			}
		case "rewin":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			resp, err := conn.RewinPost(id)
			report(resp.Code, err)
		case "rate", "ratec":
			if len(fields) != 3 || (fields[2] != "+" && fields[2] != "-") {
				fmt.Printf("%v <id> +|-\n", fields[0])
				continue
			}
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			var code wire.Code
			var err error
			if fields[0] == "rate" {
				code, err = conn.RatePost(id, fields[2] == "+")
			} else {
				code, err = conn.RateComment(id, fields[2] == "+")
			}
			report(code, err)
		case "comment":
			if len(fields) < 3 {
				fmt.Println("comment <id> <text>")
				continue
			}
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			resp, err := conn.CreateComment(id, strings.Join(fields[2:], " "))
			report(resp.Code, err)
		case "wallet":
			resp, err := conn.Wallet()
			report(resp.Code, err)
			if err == nil {
				fmt.Printf("  total %.4f over %v transactions\n", resp.Total, len(resp.Transactions))
			}
		default:
			fmt.Print(usage)
		}
	}
}

func parseID(fields []string) (int32, bool) {
	if len(fields) < 2 {
		fmt.Println("missing id")
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		fmt.Println("id must be a positive number")
		return 0, false
	}
	return int32(n), true
}

func report(code interface{ String() string }, err error) {
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	fmt.Println(code.String())
}
