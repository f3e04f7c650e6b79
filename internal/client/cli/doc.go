// Package cli implements the one-shot auth command-line client.
//
//	register [username]   create an account, prompting for the rest
//	login    [username]   print an access token
//	me                    print the profile behind the token
//	validate              report whether the token is still accepted
//	ping                  check that the server answers
//
// me and validate take the token from -token or GOPHAUTH_ACCESS_TOKEN.
// Results are written to stdout as indented JSON.
package cli
