package betdata

// BettingContractABI covers the surface this client consumes: the four
// state-changing calls, the two views, and the lifecycle events.
const BettingContractABI = `[
  {"type":"function","name":"make_bet","stateMutability":"nonpayable","inputs":[
    {"name":"bet_text","type":"string"},
    {"name":"bet_amount","type":"uint256"},
    {"name":"target","type":"address"}],"outputs":[]},
  {"type":"function","name":"accept_bet","stateMutability":"nonpayable","inputs":[
    {"name":"bet_id","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"reject_bet","stateMutability":"nonpayable","inputs":[
    {"name":"bet_id","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[
    {"name":"bet_id","type":"uint256"},
    {"name":"vote_choice","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"get_bet_details","stateMutability":"view","inputs":[
    {"name":"bet_id","type":"uint256"}],"outputs":[
    {"name":"","type":"tuple","components":[
      {"name":"state","type":"uint8"},
      {"name":"name","type":"string"},
      {"name":"bet_amount","type":"uint256"},
      {"name":"initiator","type":"address"},
      {"name":"participant","type":"address"},
      {"name":"initiator_paid","type":"bool"},
      {"name":"participant_paid","type":"bool"},
      {"name":"initiator_vote","type":"uint8"},
      {"name":"participant_vote","type":"uint8"}]}]},
  {"type":"function","name":"isRefundWhitelisted","stateMutability":"view","inputs":[
    {"name":"addr","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"BetCreated","anonymous":false,"inputs":[
    {"name":"bet_id","type":"uint256","indexed":true},
    {"name":"bet_text","type":"string","indexed":false},
    {"name":"initiator","type":"address","indexed":true},
    {"name":"target","type":"address","indexed":true},
    {"name":"bet_amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"BetStarted","anonymous":false,"inputs":[
    {"name":"bet_id","type":"uint256","indexed":true}]},
  {"type":"event","name":"BetRejected","anonymous":false,"inputs":[
    {"name":"bet_id","type":"uint256","indexed":true}]},
  {"type":"event","name":"BetResolved","anonymous":false,"inputs":[
    {"name":"bet_id","type":"uint256","indexed":true},
    {"name":"winner","type":"address","indexed":false}]},
  {"type":"event","name":"BetVoted","anonymous":false,"inputs":[
    {"name":"bet_id","type":"uint256","indexed":true},
    {"name":"voter","type":"address","indexed":false},
    {"name":"vote","type":"uint8","indexed":false}]},
  {"type":"event","name":"BetRefunded","anonymous":false,"inputs":[
    {"name":"bet_id","type":"uint256","indexed":true}]}
]`

// ERC20ABI is the standard fungible-token subset the wager currency needs.
const ERC20ABI = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
    {"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[
    {"name":"owner","type":"address"},
    {"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
    {"name":"spender","type":"address"},
    {"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`
